package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "braintrain-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "braintrain-auth")
	}
	if cfg.JWTAudience != "braintrain-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "braintrain-api")
	}
	if cfg.JWTAccessTTL != "15m" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "15m")
	}
	if cfg.JWTRefreshTTL != "168h" {
		t.Errorf("JWTRefreshTTL = %q, want %q", cfg.JWTRefreshTTL, "168h")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if !cfg.OTPReturnToClient {
		t.Error("OTPReturnToClient should default to true")
	}
	if cfg.TelemetryKafkaTopic != "braintrain-telemetry" {
		t.Errorf("TelemetryKafkaTopic = %q, want default", cfg.TelemetryKafkaTopic)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
}

func TestLoad_DevOTPInProduction(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("OTP_RETURN_TO_CLIENT", "true")
	os.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail when OTP_RETURN_TO_CLIENT=true in production")
	}
}

func TestLoad_SMSModeRequiresTwilio(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("OTP_RETURN_TO_CLIENT", "false")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail when SMS mode is on without Twilio credentials")
	}

	os.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	os.Setenv("TWILIO_AUTH_TOKEN", "secret")
	os.Setenv("TWILIO_FROM_NUMBER", "+15005550006")

	if _, err := Load(); err != nil {
		t.Fatalf("Load with Twilio credentials: %v", err)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail for out-of-range BCRYPT_COST")
	}
}

func TestTTLParsing(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "30m", JWTRefreshTTL: "72h"}
	if got := cfg.AccessTTL(); got != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", got)
	}
	if got := cfg.RefreshTTL(); got != 72*time.Hour {
		t.Errorf("RefreshTTL = %v, want 72h", got)
	}

	bad := &Config{JWTAccessTTL: "nope", JWTRefreshTTL: ""}
	if got := bad.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL fallback = %v, want 15m", got)
	}
	if got := bad.RefreshTTL(); got != 168*time.Hour {
		t.Errorf("RefreshTTL fallback = %v, want 168h", got)
	}
}

func TestTelemetryKafkaBrokersList(t *testing.T) {
	cfg := &Config{TelemetryKafkaBrokers: "a:9092, b:9092 ,,"}
	got := cfg.TelemetryKafkaBrokersList()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("brokers = %v", got)
	}
	empty := &Config{}
	if got := empty.TelemetryKafkaBrokersList(); got != nil {
		t.Errorf("brokers for empty config = %v, want nil", got)
	}
}
