package server

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"knowhere/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func validEventFields() map[string]string {
	return map[string]string{
		"title":    "Go Meetup",
		"category": "Meetup",
		"location": "Austin",
		"date":     futureDate(10),
		"time":     "18:00",
		"hours":    "2",
		"price":    "0",
		"capacity": "40",
	}
}

func TestGetEvents(t *testing.T) {
	s, app := newTestServer(t)
	seedEvent(t, s, 1, "Go Meetup", futureDate(10), "18:00", 2)
	seedEvent(t, s, 2, "Rust Workshop", futureDate(20), "09:00", 4)
	seedEvent(t, s, 3, "Old Concert", "2020-01-01", "20:00", 3)

	t.Run("lists everything by default", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/events", nil))
		require.NoError(t, err)
		body := decodeBody(t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(3), body["count"])
	})

	t.Run("title filter is case-insensitive", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/events?q=RUST", nil))
		require.NoError(t, err)
		body := decodeBody(t, resp)

		assert.Equal(t, float64(1), body["count"])
	})

	t.Run("status filter excludes past events", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/events?status=upcoming,soon,live", nil))
		require.NoError(t, err)
		body := decodeBody(t, resp)

		assert.Equal(t, float64(2), body["count"])
	})

	t.Run("price range", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/events?price_min=100", nil))
		require.NoError(t, err)
		body := decodeBody(t, resp)

		assert.Equal(t, float64(0), body["count"])
	})
}

func TestGetEvent(t *testing.T) {
	s, app := newTestServer(t)
	seedEvent(t, s, 42, "Go Meetup", futureDate(10), "18:00", 2)

	t.Run("found", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/events/42", nil))
		require.NoError(t, err)
		body := decodeBody(t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(42), body["id"])
		assert.Equal(t, "upcoming", body["status"])
	})

	t.Run("not found", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/events/999", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestGetEventStatus(t *testing.T) {
	s, app := newTestServer(t)
	seedEvent(t, s, 7, "Old Concert", "2020-01-01", "20:00", 3)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/events/7/status", nil))
	require.NoError(t, err)
	body := decodeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "past", body["status"])
}

func TestGetEventCategories(t *testing.T) {
	_, app := newTestServer(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/events/categories", nil))
	require.NoError(t, err)
	body := decodeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	categories, ok := body["categories"].([]any)
	require.True(t, ok)
	assert.Len(t, categories, 5)
}

func TestCreateEvent(t *testing.T) {
	t.Run("admin can create", func(t *testing.T) {
		_, app := newTestServer(t)
		token := loginAs(t, app, "admin", "admin", "adminpass")

		form, contentType := newEventForm(t, validEventFields())
		req := httptest.NewRequest(http.MethodPost, "/api/events", form)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		body := decodeBody(t, resp)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "Go Meetup", body["title"])
		assert.NotZero(t, body["id"])
	})

	t.Run("missing description is generated", func(t *testing.T) {
		_, app := newTestServer(t)
		token := loginAs(t, app, "admin", "admin", "adminpass")

		fields := validEventFields()
		fields["tone"] = "marketing"
		form, contentType := newEventForm(t, fields)
		req := httptest.NewRequest(http.MethodPost, "/api/events", form)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		body := decodeBody(t, resp)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		description, _ := body["description"].(string)
		assert.Contains(t, description, "Go Meetup")
	})

	t.Run("provided description is kept verbatim", func(t *testing.T) {
		_, app := newTestServer(t)
		token := loginAs(t, app, "admin", "admin", "adminpass")

		fields := validEventFields()
		fields["description"] = "Hand-written copy."
		form, contentType := newEventForm(t, fields)
		req := httptest.NewRequest(http.MethodPost, "/api/events", form)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		body := decodeBody(t, resp)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "Hand-written copy.", body["description"])
	})

	t.Run("image upload becomes an inline data URL", func(t *testing.T) {
		s, app := newTestServer(t)
		token := loginAs(t, app, "admin", "admin", "adminpass")

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for k, v := range validEventFields() {
			require.NoError(t, w.WriteField(k, v))
		}
		part, err := w.CreateFormFile("image", "poster.png")
		require.NoError(t, err)
		_, err = part.Write(testutil.TinyPNG(t, 8, 8))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/events", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		body := decodeBody(t, resp)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		image, _ := body["image"].(string)
		assert.True(t, strings.HasPrefix(image, "data:image/png;base64,"), "got %q", image[:min(len(image), 30)])

		// The original bytes also land in the upload dir
		entries, err := os.ReadDir(s.config.UploadDir)
		require.NoError(t, err)
		assert.NotEmpty(t, entries)
	})

	t.Run("non-image upload is rejected", func(t *testing.T) {
		_, app := newTestServer(t)
		token := loginAs(t, app, "admin", "admin", "adminpass")

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for k, v := range validEventFields() {
			require.NoError(t, w.WriteField(k, v))
		}
		part, err := w.CreateFormFile("image", "notes.txt")
		require.NoError(t, err)
		_, err = part.Write(testutil.NotAnImage())
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/events", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects invalid category", func(t *testing.T) {
		_, app := newTestServer(t)
		token := loginAs(t, app, "admin", "admin", "adminpass")

		fields := validEventFields()
		fields["category"] = "Rave"
		form, contentType := newEventForm(t, fields)
		req := httptest.NewRequest(http.MethodPost, "/api/events", form)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		_, app := newTestServer(t)
		token := loginAs(t, app, "user", "casey", "")

		form, contentType := newEventForm(t, validEventFields())
		req := httptest.NewRequest(http.MethodPost, "/api/events", form)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		_, app := newTestServer(t)

		form, contentType := newEventForm(t, validEventFields())
		req := httptest.NewRequest(http.MethodPost, "/api/events", form)
		req.Header.Set("Content-Type", contentType)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestDescribeEvent(t *testing.T) {
	payload := map[string]string{
		"title":    "Gopher Days",
		"category": "Conference",
		"location": "Rotterdam",
		"tone":     "formal",
		"context":  "Keynote on generics",
	}

	t.Run("admin gets a description", func(t *testing.T) {
		_, app := newTestServer(t)
		token := loginAs(t, app, "admin", "admin", "adminpass")

		resp := postJSON(t, app, "/api/events/describe", token, payload)
		body := decodeBody(t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		description, _ := body["description"].(string)
		assert.Contains(t, description, "Gopher Days")
		assert.Contains(t, description, "Keynote on generics")
		assert.Equal(t, "formal", body["tone"])
	})

	t.Run("unknown tone is rejected", func(t *testing.T) {
		_, app := newTestServer(t)
		token := loginAs(t, app, "admin", "admin", "adminpass")

		bad := map[string]string{"title": "Gopher Days", "tone": "sarcastic"}
		resp := postJSON(t, app, "/api/events/describe", token, bad)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty title is rejected", func(t *testing.T) {
		_, app := newTestServer(t)
		token := loginAs(t, app, "admin", "admin", "adminpass")

		resp := postJSON(t, app, "/api/events/describe", token, map[string]string{})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("non-admin is rejected", func(t *testing.T) {
		_, app := newTestServer(t)
		token := loginAs(t, app, "user", "casey", "")

		resp := postJSON(t, app, "/api/events/describe", token, payload)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestDeleteEvent(t *testing.T) {
	s, app := newTestServer(t)
	seedEvent(t, s, 5, "Doomed Meetup", futureDate(5), "18:00", 2)
	token := loginAs(t, app, "admin", "admin", "adminpass")

	t.Run("admin deletes and chat history goes with it", func(t *testing.T) {
		// Seed a chat message for the event
		_, err := s.redis.RPush(t.Context(), "chat:event:5:messages", `{"user":"a","text":"hi","time":"x"}`).Result()
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodDelete, "/api/events/5", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		n, err := s.redis.Exists(t.Context(), "chat:event:5:messages").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("deleting a missing event is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/events/5", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestClearEvents(t *testing.T) {
	s, app := newTestServer(t)
	for i := 1; i <= 3; i++ {
		seedEvent(t, s, int64(i), fmt.Sprintf("Event %d", i), futureDate(i), "18:00", 2)
	}
	token := loginAs(t, app, "admin", "admin", "adminpass")

	req := httptest.NewRequest(http.MethodDelete, "/api/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	listResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/events", nil))
	require.NoError(t, err)
	body := decodeBody(t, listResp)
	assert.Equal(t, float64(0), body["count"])
}
