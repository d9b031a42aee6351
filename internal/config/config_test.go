package config

import "testing"

func TestValidate_Default(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() should validate, got %v", err)
	}
}

func TestValidate_RejectsUnalignedAppSize(t *testing.T) {
	cfg := Default()
	cfg.AppSize = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-multiple-of-8 app size")
	}
}

func TestValidate_RejectsUnalignedRedZone(t *testing.T) {
	cfg := Default()
	cfg.RedZoneBorder = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-multiple-of-8 red zone")
	}
}

func TestValidate_RejectsUndersizedRedZone(t *testing.T) {
	cfg := Default()
	cfg.RedZoneBorder = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for red zone smaller than sizeof(size_t)")
	}
}

func TestValidate_RejectsNegativeQuarantine(t *testing.T) {
	cfg := Default()
	cfg.QuarantineCapacity = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative quarantine capacity")
	}
}

func TestApplyArgs_OverlaysRecognizedKeys(t *testing.T) {
	cfg := Default()
	ApplyArgs(&cfg, []string{"app-size", "4096", "quarantine", "3", "init-policy", "strict", "bogus-key", "ignored"})

	if cfg.AppSize != 4096 {
		t.Fatalf("AppSize = %d, want 4096", cfg.AppSize)
	}
	if cfg.QuarantineCapacity != 3 {
		t.Fatalf("QuarantineCapacity = %d, want 3", cfg.QuarantineCapacity)
	}
	if cfg.InitPolicy != Strict {
		t.Fatalf("InitPolicy = %v, want Strict", cfg.InitPolicy)
	}
}

func TestApplyArgs_IgnoresMalformedValues(t *testing.T) {
	cfg := Default()
	orig := cfg.AppSize
	ApplyArgs(&cfg, []string{"app-size", "not-a-number"})
	if cfg.AppSize != orig {
		t.Fatalf("AppSize = %d, want unchanged %d", cfg.AppSize, orig)
	}
}

func TestLoadConfigArgs_MissingFileReturnsNil(t *testing.T) {
	t.Setenv("GOASAN_CONFIG_PATH", "/nonexistent/path/for/goasan/test")
	if args := LoadConfigArgs(); args != nil {
		t.Fatalf("LoadConfigArgs() = %v, want nil", args)
	}
}
