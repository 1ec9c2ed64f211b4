package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HadesClient/hades-web/app/models"
	"github.com/HadesClient/hades-web/app/repository"
	"github.com/HadesClient/hades-web/internal/pkg/database/dbtest"
	"github.com/HadesClient/hades-web/internal/pkg/marketplace"
	"github.com/HadesClient/hades-web/internal/pkg/objectstore"
	"github.com/HadesClient/hades-web/internal/pkg/usercontext"
)

// signedIn stands in for the bearer middleware.
func signedIn(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		usercontext.Set(c, usercontext.UserContext{UserID: userID, Username: userID, IsLoggedIn: true})
		return c.Next()
	}
}

func uploadRequest(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/configs", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandleUpload(t *testing.T) {
	db := dbtest.New(t)
	require.NoError(t, db.Create(&models.Profile{UserID: "u1", Username: "neo"}).Error)
	bucket := objectstore.NewMemoryBucket("configs")
	mc := NewMarketplaceController(marketplace.NewService(db, repository.NewConfigRepository(db), bucket))

	app := fiber.New()
	app.Post("/configs", signedIn("u1"), mc.HandleUpload)

	fields := map[string]string{
		"name":        "Legit HvH",
		"description": "closet settings",
		"category":    "HvH",
		"price":       "150",
	}

	t.Run("stores file and row", func(t *testing.T) {
		resp, err := app.Test(uploadRequest(t, fields, "legit.json", []byte(`{"fov":2}`)), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		var out struct {
			Config models.Config `json:"config"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "u1", out.Config.UserID)
		assert.EqualValues(t, 150, out.Config.Price)

		data, err := bucket.Get(context.Background(), out.Config.FilePath)
		require.NoError(t, err)
		assert.Equal(t, `{"fov":2}`, string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		resp, err := app.Test(uploadRequest(t, fields, "", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"error":"File is required"}`, body(t, resp))
	})

	t.Run("wrong extension", func(t *testing.T) {
		resp, err := app.Test(uploadRequest(t, fields, "payload.exe", []byte("MZ")), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	assert.Equal(t, 1, bucket.Len())
}
