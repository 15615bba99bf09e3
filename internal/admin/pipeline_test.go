package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnDeved/wallhub/internal/catalog"
	"github.com/JohnDeved/wallhub/internal/client"
	"github.com/JohnDeved/wallhub/internal/model"
	"github.com/JohnDeved/wallhub/internal/notify"
)

// backend is an in-memory stand-in for the wallpaper API.
type backend struct {
	mu         sync.Mutex
	categories []string
	uploads    []map[string]string
	authHeader []string
	bulk       []map[string]string
	bulkStatus int
	bulkBody   string
}

func (b *backend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/get-wallpapers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"wallpapers": []any{}})
	})
	mux.HandleFunc("GET /api/get-categories", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"categories": b.categories})
	})
	mux.HandleFunc("POST /api/upload-wallpaper", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fields := map[string]string{}
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		if fh := r.MultipartForm.File["image"]; len(fh) > 0 {
			fields["image"] = fh[0].Filename
		}
		b.mu.Lock()
		b.uploads = append(b.uploads, fields)
		b.authHeader = append(b.authHeader, r.Header.Get("Authorization"))
		if fields["category"] == model.CreateNewCategory {
			b.categories = append(b.categories, fields["new-category"])
		}
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "Wallpaper uploaded successfully"})
	})
	mux.HandleFunc("POST /api/fetch-wallpapers", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.bulk = append(b.bulk, body)
		status, resp := b.bulkStatus, b.bulkBody
		b.mu.Unlock()
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// mutableToken lets a test change the token after the pipeline is built.
type mutableToken struct {
	mu  sync.Mutex
	tok string
}

func (m *mutableToken) Token(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tok, nil
}

func (m *mutableToken) set(s string) {
	m.mu.Lock()
	m.tok = s
	m.mu.Unlock()
}

type fixture struct {
	be     *backend
	repo   *catalog.Repository
	rec    *notify.Recorder
	tokens *mutableToken
	p      *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	be := &backend{categories: []string{"Nature", "Abstract"}}
	srv := httptest.NewServer(be.handler(t))
	t.Cleanup(srv.Close)

	c := client.New(srv.URL, 100, zerolog.Nop())
	repo := catalog.NewRepository(c, zerolog.Nop())
	_, err := repo.Load(context.Background(), "")
	require.NoError(t, err)

	rec := &notify.Recorder{}
	tokens := &mutableToken{tok: "secret"}
	return &fixture{
		be:     be,
		repo:   repo,
		rec:    rec,
		tokens: tokens,
		p:      New(c, tokens, repo, rec, zerolog.Nop()),
	}
}

func validRequest() ManualRequest {
	return ManualRequest{
		Name:        "Nebula",
		Description: "Deep field",
		Device:      model.DevicePC,
		Category:    "Nature",
		ImageName:   "nebula.jpg",
		Image:       strings.NewReader("jpegbytes"),
	}
}

func TestSubmitManual_NewCategoryAppearsAfterRefresh(t *testing.T) {
	f := newFixture(t)
	assert.NotContains(t, f.repo.Categories(), "Space")

	req := validRequest()
	req.Category = model.CreateNewCategory
	req.NewCategory = "Space"

	msg, err := f.p.SubmitManual(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Wallpaper uploaded successfully", msg)

	assert.Contains(t, f.repo.Categories(), "Space")
	assert.Equal(t, []string{"Nature", "Abstract", "Space", model.CreateNewCategory}, f.p.Categories())

	require.Len(t, f.be.uploads, 1)
	up := f.be.uploads[0]
	assert.Equal(t, "Nebula", up["name"])
	assert.Equal(t, "Deep field", up["description"])
	assert.Equal(t, "pc", up["device"])
	assert.Equal(t, model.CreateNewCategory, up["category"])
	assert.Equal(t, "Space", up["new-category"])
	assert.Equal(t, "nebula.jpg", up["image"])

	last, _ := f.rec.Last()
	assert.Equal(t, notify.Notification{Level: notify.Success, Message: "Wallpaper uploaded successfully"}, last)
}

func TestSubmitManual_ExistingCategoryDoesNotReload(t *testing.T) {
	f := newFixture(t)
	gen := f.repo.Generation()

	_, err := f.p.SubmitManual(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, gen, f.repo.Generation())
	assert.Empty(t, f.be.uploads[0]["new-category"])
}

func TestSubmitManual_NormalizesFields(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.Device = "PC"
	req.Description = "  Deep field  "

	_, err := f.p.SubmitManual(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, f.be.uploads, 1)
	assert.Equal(t, "pc", f.be.uploads[0]["device"])
	assert.Equal(t, "Deep field", f.be.uploads[0]["description"])
}

func TestSubmitManual_ReadsTokenAtCallTime(t *testing.T) {
	f := newFixture(t)

	_, err := f.p.SubmitManual(context.Background(), validRequest())
	require.NoError(t, err)
	f.tokens.set("rotated")
	_, err = f.p.SubmitManual(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer secret", "Bearer rotated"}, f.be.authHeader)
}

func TestSubmitManual_ValidationMakesNoRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ManualRequest)
		field  string
	}{
		{"missing name", func(r *ManualRequest) { r.Name = "  " }, "name"},
		{"missing description", func(r *ManualRequest) { r.Description = "" }, "description"},
		{"blank description", func(r *ManualRequest) { r.Description = "   " }, "description"},
		{"bad device", func(r *ManualRequest) { r.Device = "tablet" }, "device"},
		{"missing image", func(r *ManualRequest) { r.Image = nil }, "image"},
		{"new category empty", func(r *ManualRequest) { r.Category = model.CreateNewCategory }, "new category"},
		{"new category reserved", func(r *ManualRequest) {
			r.Category = model.CreateNewCategory
			r.NewCategory = model.CreateNewCategory
		}, "new category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validRequest()
			tt.mutate(&req)

			_, err := f.p.SubmitManual(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrValidation)

			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, f.be.uploads)

			last, _ := f.rec.Last()
			assert.Equal(t, notify.Failure, last.Level)
		})
	}
}

func TestSubmitManual_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	rec := &notify.Recorder{}
	p := New(client.New(srv.URL, 100, zerolog.Nop()), StaticToken(""), nil, rec, zerolog.Nop())

	_, err := p.SubmitManual(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNetwork)
	last, _ := rec.Last()
	assert.Equal(t, notify.Notification{Level: notify.Failure, Message: "Error uploading wallpaper"}, last)
}

func TestSubmitBulk(t *testing.T) {
	f := newFixture(t)
	f.be.bulkBody = `{"message":"Fetched 10 wallpapers"}`
	gen := f.repo.Generation()

	msg, err := f.p.SubmitBulk(context.Background(), BulkRequest{Query: " mountains ", Device: model.DeviceMobile})
	require.NoError(t, err)
	assert.Equal(t, "Fetched 10 wallpapers", msg)
	assert.Equal(t, []map[string]string{{"query": "mountains", "device": "mobile"}}, f.be.bulk)
	assert.Greater(t, f.repo.Generation(), gen, "bulk ingestion reloads the catalog")
}

func TestSubmitBulk_Required(t *testing.T) {
	f := newFixture(t)

	for _, req := range []BulkRequest{
		{Query: "x"},
		{Device: model.DevicePC},
		{Query: "  ", Device: model.DevicePC},
		{Query: "x", Device: "tablet"},
	} {
		_, err := f.p.SubmitBulk(context.Background(), req)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrValidation)
		assert.Equal(t, "Query and device are required", err.Error())
	}
	assert.Empty(t, f.be.bulk)
}

func TestSubmitBulk_DeviceIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.be.bulkBody = `{"message":"queued"}`

	msg, err := f.p.SubmitBulk(context.Background(), BulkRequest{Query: "x", Device: " Mobile "})
	require.NoError(t, err)
	assert.Equal(t, "queued", msg)
	require.Len(t, f.be.bulk, 1)
	assert.Equal(t, "mobile", f.be.bulk[0]["device"])
}

func TestSubmitBulk_ErrorBody(t *testing.T) {
	f := newFixture(t)
	f.be.bulkBody = `{"error":"provider quota exceeded"}`

	_, err := f.p.SubmitBulk(context.Background(), BulkRequest{Query: "x", Device: model.DevicePC})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNetwork)
	assert.Contains(t, err.Error(), "provider quota exceeded")

	last, _ := f.rec.Last()
	assert.Equal(t, notify.Failure, last.Level)
}
