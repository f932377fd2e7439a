package config

import "testing"

var envVars = []string{
	"ZALOGA_DB", "ZALOGA_ADDR", "ZALOGA_PUBLIC_URL", "ZALOGA_BUCKET",
	"ZALOGA_CAMERA_CMD", "ZALOGA_ADMIN", "ZALOGA_LOG",
	"S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY",
	"S3_PUBLIC_URL", "S3_PUBLIC_READ",
}

// clearEnv sets every variable Load reads to empty, which Load treats as
// unset.
func clearEnv(t *testing.T) {
	for _, key := range envVars {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := map[string][2]string{
		"DB":       {cfg.DB, "zaloga.sqlite3"},
		"Addr":     {cfg.Addr, ":8080"},
		"Bucket":   {cfg.Bucket, "location-images"},
		"S3Region": {cfg.S3Region, "us-east-1"},
		"Admin":    {cfg.AdminUser, "Admin"},
	}
	for name, v := range tests {
		if v[0] != v[1] {
			t.Errorf("%s = %q, want %q", name, v[0], v[1])
		}
	}
	if cfg.UseS3() {
		t.Error("expected database photo storage by default")
	}
	if cfg.BaseURL() != "http://localhost:8080" {
		t.Errorf("BaseURL = %q", cfg.BaseURL())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadS3(t *testing.T) {
	clearEnv(t)
	t.Setenv("S3_ENDPOINT", "https://s3.example")
	t.Setenv("S3_ACCESS_KEY", "key")
	t.Setenv("S3_SECRET_KEY", "secret")
	t.Setenv("S3_PUBLIC_READ", "true")
	t.Setenv("ZALOGA_BUCKET", "photos")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.UseS3() {
		t.Fatal("expected S3 storage")
	}
	s3 := cfg.S3()
	if s3.Bucket != "photos" || !s3.PublicRead || s3.Endpoint != "https://s3.example" {
		t.Errorf("unexpected S3 config %+v", s3)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadInvalidBool(t *testing.T) {
	clearEnv(t)
	t.Setenv("S3_PUBLIC_READ", "sometimes")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid S3_PUBLIC_READ")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"minimal", Config{DB: "x.db"}, true},
		{"no db", Config{}, false},
		{"s3 without keys", Config{DB: "x.db", S3Endpoint: "https://s3"}, false},
		{"relative public url", Config{DB: "x.db", PublicURL: "zaloga.local"}, false},
		{"public url", Config{DB: "x.db", PublicURL: "https://zaloga.example/"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}

	cfg := Config{PublicURL: "https://zaloga.example/"}
	if cfg.BaseURL() != "https://zaloga.example" {
		t.Errorf("BaseURL = %q", cfg.BaseURL())
	}
}
