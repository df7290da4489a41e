package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/clovern/internal/auth"
	"github.com/starford/clovern/internal/importer"
	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/testutil"
	"github.com/starford/clovern/internal/tracker"
)

// testEnv builds a store over an in-memory gateway and the API router.
// A non-empty token enables Bearer auth.
func testEnv(t *testing.T, token string) (*tracker.Store, *testutil.Gateway, http.Handler) {
	t.Helper()
	gw := testutil.NewGateway(nil)
	store, err := tracker.Open(context.Background(), gw)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	imports := importer.NewManager(store, 0, nil)
	var opts RouterOptions
	if token != "" {
		opts.Auth = auth.Token(token)
	}
	return store, gw, NewRouter(store, imports, opts)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func upload(t *testing.T, h http.Handler, path, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestApplicationCRUD(t *testing.T) {
	_, _, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/applications", map[string]string{"company": "Acme", "position": "SRE"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	app := decode[models.JobApplication](t, w)
	if app.ID == "" || app.Status != models.StatusWishlist {
		t.Fatalf("created = %+v", app)
	}

	w = do(t, router, http.MethodPatch, "/applications/"+app.ID, map[string]any{"status": "Offer", "folderId": nil})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[models.JobApplication](t, w); got.Status != models.StatusOffer || got.Position != "SRE" {
		t.Errorf("patched = %+v", got)
	}

	w = do(t, router, http.MethodGet, "/applications", nil)
	list := decode[ApplicationListResponse](t, w)
	if list.Total != 1 {
		t.Errorf("total = %d, want 1", list.Total)
	}

	w = do(t, router, http.MethodDelete, "/applications/"+app.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/applications/"+app.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", w.Code)
	}
}

func TestCreateApplicationErrors(t *testing.T) {
	_, _, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/applications", map[string]string{"status": "Ghosted"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad status code = %d, want 400", w.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json code = %d, want 400", rec.Code)
	}
	w = do(t, router, http.MethodPatch, "/applications/missing", map[string]string{"company": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("patch missing code = %d, want 404", w.Code)
	}
}

func TestSaveFailureThenRetry(t *testing.T) {
	store, gw, router := testEnv(t, "")
	gw.SetFail(true)

	w := do(t, router, http.MethodPost, "/applications", map[string]string{"company": "Acme"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if body := decode[errResponse](t, w); body.Saved == nil || *body.Saved {
		t.Errorf("body = %s", w.Body.String())
	}
	if len(store.Applications()) != 1 {
		t.Fatalf("in-memory change lost")
	}

	gw.SetFail(false)
	w = do(t, router, http.MethodPost, "/save", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("save status = %d", w.Code)
	}
	if len(gw.Saved().Applications) != 1 {
		t.Errorf("retry did not persist")
	}
}

func TestFolderDeleteUnfiles(t *testing.T) {
	store, _, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/folders", map[string]string{"name": "Remote", "color": "#3b82f6"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create folder = %d, body = %s", w.Code, w.Body.String())
	}
	f := decode[models.Folder](t, w)
	for i := 0; i < 2; i++ {
		do(t, router, http.MethodPost, "/applications", map[string]any{"company": "Acme", "folderId": f.ID})
	}

	w = do(t, router, http.MethodGet, "/folders", nil)
	list := decode[FolderListResponse](t, w)
	if len(list.Folders) != 1 || list.Folders[0].Count != 2 || list.Total != 2 {
		t.Fatalf("folders = %+v", list)
	}

	w = do(t, router, http.MethodDelete, "/folders/"+f.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete folder = %d", w.Code)
	}
	for _, a := range store.Applications() {
		if a.FolderID != nil {
			t.Errorf("application %s still filed", a.ID)
		}
	}
	if len(store.Applications()) != 2 {
		t.Errorf("applications removed by folder delete")
	}
}

func TestReorderFolders(t *testing.T) {
	_, _, router := testEnv(t, "")
	var ids []string
	for _, n := range []string{"A", "B", "C"} {
		w := do(t, router, http.MethodPost, "/folders", map[string]string{"name": n})
		ids = append(ids, decode[models.Folder](t, w).ID)
	}
	w := do(t, router, http.MethodPost, "/folders/"+ids[2]+"/reorder", ReorderRequest{TargetID: ids[0]})
	if w.Code != http.StatusOK {
		t.Fatalf("reorder = %d, body = %s", w.Code, w.Body.String())
	}
	folders := decode[[]models.Folder](t, w)
	var names []string
	for _, f := range folders {
		names = append(names, f.Name)
	}
	if strings.Join(names, "") != "CAB" {
		t.Errorf("order = %v, want [C A B]", names)
	}
}

func TestViewSearchSelectAllAndBulkDelete(t *testing.T) {
	store, _, router := testEnv(t, "")
	for _, c := range []string{"Acme Corp", "Other Co", "acme Industries"} {
		do(t, router, http.MethodPost, "/applications", map[string]string{"company": c})
	}

	w := do(t, router, http.MethodPut, "/view", map[string]string{"query": "acme"})
	v := decode[ViewResponse](t, w)
	if len(v.Rows) != 2 || v.State.Query != "acme" {
		t.Fatalf("view = %+v", v)
	}
	if len(v.Columns) == 0 {
		t.Errorf("no visible columns")
	}

	w = do(t, router, http.MethodPost, "/view/select-all", nil)
	if sel := decode[SelectionResponse](t, w); len(sel.Selected) != 2 {
		t.Fatalf("selected = %v", sel.Selected)
	}
	w = do(t, router, http.MethodPost, "/applications/bulk-delete", BulkDeleteRequest{Selected: true})
	if got := decode[DeletedResponse](t, w); got.Deleted != 2 {
		t.Errorf("deleted = %d, want 2", got.Deleted)
	}
	if apps := store.Applications(); len(apps) != 1 || apps[0].Company != "Other Co" {
		t.Errorf("left = %+v", apps)
	}

	w = do(t, router, http.MethodPut, "/view", map[string]any{"folderId": "missing"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown folder context = %d, want 404", w.Code)
	}
}

func TestSortToggle(t *testing.T) {
	_, _, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/view/sort", map[string]string{"key": "company"})
	if s := decode[SortResponse](t, w); s.Key != "company" || s.Desc {
		t.Fatalf("first click = %+v", s)
	}
	w = do(t, router, http.MethodPost, "/view/sort", map[string]string{"key": "company"})
	if s := decode[SortResponse](t, w); !s.Desc {
		t.Errorf("second click = %+v", s)
	}
}

func TestImportFlow(t *testing.T) {
	store, gw, router := testEnv(t, "")

	w := upload(t, router, "/import", "jobs.csv", []byte("Company,Role\nGlobex,Engineer\n,Analyst\n"))
	if w.Code != http.StatusCreated {
		t.Fatalf("start = %d, body = %s", w.Code, w.Body.String())
	}
	p := decode[importer.Preview](t, w)
	if p.RowCount != 2 || p.Mapping["company"] != "Company" {
		t.Fatalf("preview = %+v", p)
	}

	w = do(t, router, http.MethodPut, "/import/"+p.ID+"/mapping", MappingRequest{Mapping: map[string]string{"position": "Role"}})
	if w.Code != http.StatusOK {
		t.Fatalf("mapping = %d, body = %s", w.Code, w.Body.String())
	}
	if gw.Saves() != 0 {
		t.Fatalf("store written before confirm")
	}

	w = do(t, router, http.MethodPost, "/import/"+p.ID+"/confirm", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("confirm = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[ImportResponse](t, w)
	if res.Imported != 2 {
		t.Fatalf("imported = %d", res.Imported)
	}
	apps := store.Applications()
	if apps[0].Company != "Globex" || apps[0].Position != "Engineer" {
		t.Errorf("first = %+v", apps[0])
	}
	if apps[1].Company != "Unknown" || apps[1].Position != "Analyst" {
		t.Errorf("second = %+v", apps[1])
	}
	if gw.Saves() != 1 {
		t.Errorf("saves = %d, want 1", gw.Saves())
	}
}

func TestImportDecodeFailure(t *testing.T) {
	_, gw, router := testEnv(t, "")
	w := upload(t, router, "/import", "jobs.xlsx", []byte("not a workbook"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if gw.Saves() != 0 {
		t.Errorf("saves = %d", gw.Saves())
	}
}

func TestExportCSV(t *testing.T) {
	_, _, router := testEnv(t, "")
	do(t, router, http.MethodPost, "/applications", map[string]string{"company": "Acme, Inc", "position": "SRE"})

	w := do(t, router, http.MethodGet, "/export?format=csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if lines[0] != strings.Join(models.DefaultVisibleColumns(), ",") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], `"Acme, Inc",SRE,`) {
		t.Errorf("row = %q", lines[1])
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}

	w = do(t, router, http.MethodGet, "/export?format=pdf", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("pdf export = %d, want 400", w.Code)
	}
}

func TestWallpaperUpload(t *testing.T) {
	_, _, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/folders", map[string]string{"name": "Remote"})
	f := decode[models.Folder](t, w)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	w = upload(t, router, "/folders/"+f.ID+"/wallpaper", "bg.png", png)
	if w.Code != http.StatusOK {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	got := decode[models.Folder](t, w)
	if !got.WallpaperIsImage() || !strings.HasPrefix(got.Wallpaper, "data:image/png;base64,") {
		t.Errorf("wallpaper = %.40q", got.Wallpaper)
	}

	w = upload(t, router, "/folders/"+f.ID+"/wallpaper", "bg.png", []byte("just text"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("text upload = %d, want 400", w.Code)
	}
}

func TestSettingsCustomColumns(t *testing.T) {
	_, _, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/settings/custom-columns", CustomColumnRequest{Label: "Referral"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add = %d, body = %s", w.Code, w.Body.String())
	}
	col := decode[models.CustomColumn](t, w)

	w = do(t, router, http.MethodGet, "/settings", nil)
	s := decode[SettingsResponse](t, w)
	last := s.Columns[len(s.Columns)-1]
	if last.ID != col.ID {
		t.Errorf("custom column not visible: %+v", s.Columns)
	}
	if !s.Theme.DarkMode || s.Theme.AccentColor != models.DefaultAccentColor {
		t.Errorf("theme = %+v", s.Theme)
	}

	w = do(t, router, http.MethodDelete, "/settings/custom-columns/"+col.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d", w.Code)
	}
	w = do(t, router, http.MethodPost, "/settings/columns/bogus/toggle", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("toggle unknown = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, _, router := testEnv(t, "secret")

	w := do(t, router, http.MethodGet, "/applications", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/applications", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("with token = %d, want 200", rec.Code)
	}
}

func TestAuthAccessTokenQuery(t *testing.T) {
	_, _, router := testEnv(t, "secret")
	w := do(t, router, http.MethodGet, "/applications?access_token=secret", nil)
	if w.Code != http.StatusOK {
		t.Errorf("query token = %d, want 200", w.Code)
	}
	w = do(t, router, http.MethodGet, "/applications?access_token=wrong", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong query token = %d, want 401", w.Code)
	}
}

func TestAuthJWT(t *testing.T) {
	store, _, _ := testEnv(t, "")
	issuer := auth.NewJWT("s3cret", "clovern")
	router := NewRouter(store, importer.NewManager(store, 0, nil), RouterOptions{Auth: issuer})

	tok, err := issuer.Issue("test", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/applications", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("signed token = %d, want 200", rec.Code)
	}

	req.Header.Set("Authorization", "Bearer "+tok+"x")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("tampered token = %d, want 401", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	store, _, _ := testEnv(t, "")
	router := NewRouter(store, importer.NewManager(store, 0, nil), RouterOptions{
		Limiter: NewRateLimiter(0.001, 2),
	})

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/applications", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/applications", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client = %d, want its own bucket", rec.Code)
	}
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	l := NewRateLimiter(1, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.Allow("a")
	now = now.Add(limiterIdle + time.Second)
	l.Allow("b")
	if _, ok := l.clients["a"]; ok {
		t.Error("idle client was not swept")
	}
}
