package cloudflare

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	appconfig "estatelink_backend/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "users/asha-realty/sea-view-flat/123-abc.webp",
		ObjectKey("Asha Realty", "Sea View Flat", "123-abc", ".webp"))
}

type recorder struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
}

func (r *recorder) handler(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.requests = append(r.requests, req.Method+" "+req.URL.Path)
	r.bodies = append(r.bodies, string(body))
	r.mu.Unlock()
	if req.Method == http.MethodDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func TestUploadAndDelete(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer srv.Close()

	r2, err := NewR2(context.Background(), appconfig.StorageConfig{
		AccessKey: "ak",
		SecretKey: "sk",
		Bucket:    "media",
		PublicURL: "https://cdn.example.com/",
	}, srv.URL)
	require.NoError(t, err)

	res, err := r2.UploadImage(context.Background(), UploadImageConfig{
		Body:        strings.NewReader("webp-bytes"),
		ContentType: "image/webp",
		Ext:         ".webp",
		Owner:       "Asha",
		Folder:      "villa",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.URL, "https://cdn.example.com/users/asha/villa/"))
	assert.True(t, strings.HasSuffix(res.Key, ".webp"))

	require.NoError(t, r2.DeleteImage(context.Background(), res.URL))

	require.Len(t, rec.requests, 2)
	assert.Equal(t, "PUT /media/"+res.Key, rec.requests[0])
	assert.Contains(t, rec.bodies[0], "webp-bytes")
	assert.Equal(t, "DELETE /media/"+res.Key, rec.requests[1])

	assert.ErrorIs(t, r2.DeleteImage(context.Background(), "https://elsewhere.com/x.webp"), ErrForeignURL)
}
