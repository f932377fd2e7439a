package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/device"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/storage"
	"github.com/erazemk/zaloga/internal/store"
)

const testJWTSecret = "test-secret"

type testAPI struct {
	server *httptest.Server
	db     *db.DB
}

func newTestAPI(t *testing.T, configure func(*Config)) *testAPI {
	t.Helper()
	database := db.NewTestDB(t)
	spool, err := device.NewSpool(t.TempDir())
	if err != nil {
		t.Fatalf("NewSpool: %v", err)
	}
	t.Cleanup(func() { spool.Close() })

	cfg := Config{
		DB:        database,
		JWTSecret: testJWTSecret,
		Bucket:    storage.NewTable(database, "", "http://zaloga.test"),
		Spool:     spool,
	}
	if configure != nil {
		configure(&cfg)
	}

	server := httptest.NewServer(NewRouter(cfg))
	t.Cleanup(server.Close)
	return &testAPI{server: server, db: database}
}

// login creates a user with the given role and returns a token for it.
func (a *testAPI) login(t *testing.T, username, role string) string {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if _, err := store.CreateUser(context.Background(), a.db, username, string(hash), role); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"username": username, "password": "password"})
	resp, err := http.Post(a.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}
	return token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func do(t *testing.T, req *http.Request, wantStatus int, out any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", req.Method, req.URL.Path, wantStatus, resp.StatusCode, body)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
}

func milk() map[string]string {
	return map[string]string{
		"name":         "Milk",
		"category":     "Food",
		"sub_category": "Fridge",
		"location":     "Bottom shelf",
		"expiry_date":  "2024-06-01",
	}
}

func TestLoginEndpoint(t *testing.T) {
	a := newTestAPI(t, nil)
	a.login(t, "admin", model.RoleAdmin)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(a.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	body, _ = json.Marshal(map[string]string{"username": "nobody", "password": "password"})
	resp, _ = http.Post(a.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown user, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginRateLimit(t *testing.T) {
	a := newTestAPI(t, func(cfg *Config) { cfg.LoginLimiter = NewRateLimiter(1, 2) })

	body, _ := json.Marshal(map[string]string{"username": "x", "password": "y"})
	var last int
	for i := 0; i < 3; i++ {
		resp, err := http.Post(a.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("login request: %v", err)
		}
		last = resp.StatusCode
		resp.Body.Close()
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %d", last)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	a := newTestAPI(t, nil)
	token := a.login(t, "ana", model.RoleMember)

	req, _ := authRequest("POST", a.server.URL+"/api/auth/logout", token, nil)
	do(t, req, http.StatusOK, nil)

	req, _ = authRequest("GET", a.server.URL+"/api/items", token, nil)
	do(t, req, http.StatusUnauthorized, nil)
}

func TestItemsAPIFlow(t *testing.T) {
	a := newTestAPI(t, nil)
	token := a.login(t, "ana", model.RoleMember)

	var created createItemResponse
	req, _ := authRequest("POST", a.server.URL+"/api/items", token, milk())
	do(t, req, http.StatusCreated, &created)

	if created.Item == nil {
		t.Fatal("expected item in response")
	}
	if created.Item.Category != "Food (Fridge)" || created.Item.ExpiryDate.String() != "2024-06-01" {
		t.Errorf("unexpected item %+v", created.Item)
	}
	if created.Item.ImageURL != nil {
		t.Errorf("expected null image url, got %q", *created.Item.ImageURL)
	}

	req, _ = authRequest("POST", a.server.URL+"/api/items", token, map[string]string{
		"name": "Eggs", "category": "Food (Pantry)", "location": "Shelf", "expiry_date": "2024-05-01",
	})
	do(t, req, http.StatusCreated, nil)

	var rows []itemRow
	req, _ = authRequest("GET", a.server.URL+"/api/items", token, nil)
	do(t, req, http.StatusOK, &rows)
	if len(rows) != 2 || rows[0].Name != "Eggs" || rows[1].Name != "Milk" {
		t.Errorf("expected [Eggs Milk], got %+v", rows)
	}
	if !rows[0].Expired {
		t.Error("expected 2024 item to be expired")
	}
}

func TestCreateItemValidation(t *testing.T) {
	a := newTestAPI(t, nil)
	token := a.login(t, "ana", model.RoleMember)

	in := milk()
	in["name"] = ""
	var resp validationResponse
	req, _ := authRequest("POST", a.server.URL+"/api/items", token, in)
	do(t, req, http.StatusBadRequest, &resp)
	if len(resp.Fields) != 1 || resp.Fields[0] != "name" {
		t.Errorf("expected name field error, got %+v", resp)
	}

	in = milk()
	delete(in, "expiry_date")
	req, _ = authRequest("POST", a.server.URL+"/api/items", token, in)
	do(t, req, http.StatusBadRequest, &resp)

	in = milk()
	in["category"] = "Toys"
	req, _ = authRequest("POST", a.server.URL+"/api/items", token, in)
	do(t, req, http.StatusBadRequest, nil)

	items, _ := store.ListItemsByExpiry(context.Background(), a.db)
	if len(items) != 0 {
		t.Errorf("expected no rows, got %d", len(items))
	}
}

func TestCreateItemIdempotencyKey(t *testing.T) {
	a := newTestAPI(t, nil)
	token := a.login(t, "ana", model.RoleMember)

	var first, second createItemResponse
	for _, out := range []*createItemResponse{&first, &second} {
		req, _ := authRequest("POST", a.server.URL+"/api/items", token, milk())
		req.Header.Set("Idempotency-Key", "0b7d5a4e-5a53-4f6e-8c1d-0f2b3c4d5e6f")
		do(t, req, http.StatusCreated, out)
	}
	if first.Item.ID != second.Item.ID {
		t.Errorf("expected same item, got %d and %d", first.Item.ID, second.Item.ID)
	}

	items, _ := store.ListItemsByExpiry(context.Background(), a.db)
	if len(items) != 1 {
		t.Errorf("expected 1 row, got %d", len(items))
	}
}

func testPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{200, 200, 0, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func multipartItem(t *testing.T, url, token string, fields map[string]string, photo []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if photo != nil {
		fw, _ := mw.CreateFormFile("photo", "shelf.png")
		fw.Write(photo)
	}
	mw.Close()

	req, _ := http.NewRequest("POST", url, &body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateItemWithPhoto(t *testing.T) {
	a := newTestAPI(t, nil)
	token := a.login(t, "ana", model.RoleMember)

	var created createItemResponse
	req := multipartItem(t, a.server.URL+"/api/items", token, milk(), testPNG(64, 64))
	do(t, req, http.StatusCreated, &created)

	if created.UploadError != "" {
		t.Fatalf("unexpected upload error %q", created.UploadError)
	}
	if created.Item.ImageURL == nil {
		t.Fatal("expected image url")
	}
	url := *created.Item.ImageURL
	if !strings.HasPrefix(url, "http://zaloga.test/media/location-images/") || !strings.HasSuffix(url, ".jpg") {
		t.Errorf("unexpected image url %q", url)
	}

	resp, err := http.Get(a.server.URL + strings.TrimPrefix(url, "http://zaloga.test"))
	if err != nil {
		t.Fatalf("GET photo: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for photo, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", ct)
	}
}

type failingBucket struct{}

func (failingBucket) Upload(ctx context.Context, name, contentType string, data []byte) error {
	return errors.New("bucket unreachable")
}

func (failingBucket) PublicURL(name string) string { return "" }

func TestCreateItemUploadFailure(t *testing.T) {
	a := newTestAPI(t, func(cfg *Config) { cfg.Bucket = failingBucket{} })
	token := a.login(t, "ana", model.RoleMember)

	var created createItemResponse
	req := multipartItem(t, a.server.URL+"/api/items", token, milk(), testPNG(64, 64))
	do(t, req, http.StatusCreated, &created)

	if created.UploadError == "" {
		t.Error("expected upload error to be reported")
	}
	if created.Item == nil || created.Item.ImageURL != nil {
		t.Errorf("expected item without photo, got %+v", created.Item)
	}
	if created.Item.Name != "Milk" || created.Item.Category != "Food (Fridge)" {
		t.Errorf("unexpected item %+v", created.Item)
	}
}

func TestCreateItemRejectsNonImage(t *testing.T) {
	a := newTestAPI(t, nil)
	token := a.login(t, "ana", model.RoleMember)

	req := multipartItem(t, a.server.URL+"/api/items", token, milk(), []byte("not a photo"))
	do(t, req, http.StatusBadRequest, nil)
}

func TestMediaNotFound(t *testing.T) {
	a := newTestAPI(t, nil)

	resp, err := http.Get(a.server.URL + "/media/location-images/missing.jpg")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	a := newTestAPI(t, nil)

	resp, _ := http.Get(a.server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	a := newTestAPI(t, nil)
	guestToken := a.login(t, "guest", model.RoleGuest)
	memberToken := a.login(t, "member", model.RoleMember)

	// Guests can read but not add.
	req, _ := authRequest("GET", a.server.URL+"/api/items", guestToken, nil)
	do(t, req, http.StatusOK, nil)
	req, _ = authRequest("POST", a.server.URL+"/api/items", guestToken, milk())
	do(t, req, http.StatusForbidden, nil)

	// Members cannot manage users.
	req, _ = authRequest("GET", a.server.URL+"/api/users", memberToken, nil)
	do(t, req, http.StatusForbidden, nil)

	// A token for a role that does not exist gets nothing.
	bogus, _ := auth.GenerateToken(testJWTSecret, 99, "bogus", "owner")
	req, _ = authRequest("POST", a.server.URL+"/api/items", bogus, milk())
	do(t, req, http.StatusForbidden, nil)
}

type recordingSessions struct {
	ended     []string
	endedUser []int64
}

func (s *recordingSessions) End(tokenID string) { s.ended = append(s.ended, tokenID) }

func (s *recordingSessions) EndUser(userID int64) int {
	s.endedUser = append(s.endedUser, userID)
	return 1
}

func TestUsersAPI(t *testing.T) {
	sessions := &recordingSessions{}
	a := newTestAPI(t, func(cfg *Config) { cfg.Sessions = sessions })
	token := a.login(t, "admin", model.RoleAdmin)

	var user model.User
	req, _ := authRequest("POST", a.server.URL+"/api/users", token, map[string]string{
		"username": "ana", "password": "long-enough", "role": model.RoleMember,
	})
	do(t, req, http.StatusCreated, &user)

	req, _ = authRequest("POST", a.server.URL+"/api/users", token, map[string]string{
		"username": "bob", "password": "short", "role": model.RoleMember,
	})
	do(t, req, http.StatusBadRequest, nil)

	req, _ = authRequest("POST", a.server.URL+"/api/users", token, map[string]string{
		"username": "bob", "password": "long-enough", "role": "manager",
	})
	do(t, req, http.StatusBadRequest, nil)

	var users []model.User
	req, _ = authRequest("GET", a.server.URL+"/api/users", token, nil)
	do(t, req, http.StatusOK, &users)
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	req, _ = authRequest("DELETE", a.server.URL+"/api/users/"+strconv.FormatInt(user.ID, 10), token, nil)
	do(t, req, http.StatusOK, nil)
	if len(sessions.endedUser) != 1 || sessions.endedUser[0] != user.ID {
		t.Errorf("expected sessions of user %d ended, got %v", user.ID, sessions.endedUser)
	}
}
