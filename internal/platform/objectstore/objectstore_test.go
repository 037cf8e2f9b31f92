package objectstore

import "testing"

func TestConfigValidate(t *testing.T) {
	cfg := Config{
		Endpoint:  "localhost:9000",
		AccessKey: "key",
		SecretKey: "secret",
		Region:    "us-east-1",
		Bucket:    "orchestration-runs",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	withScheme := cfg
	withScheme.Endpoint = "http://localhost:9000"
	if err := withScheme.Validate(); err == nil {
		t.Fatalf("expected scheme error")
	}

	noBucket := cfg
	noBucket.Bucket = " "
	if err := noBucket.Validate(); err == nil {
		t.Fatalf("expected bucket error")
	}
}

func TestConfigDisabledSkipsValidation(t *testing.T) {
	if err := (Config{}).Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
	if _, err := NewMinIOClient(Config{}); err == nil {
		t.Fatalf("expected disabled config to be rejected")
	}
}

func TestObjectKey(t *testing.T) {
	cfg := Config{Prefix: "/runs/"}
	if got := cfg.ObjectKey("abc"); got != "runs/abc.json" {
		t.Fatalf("ObjectKey()=%q", got)
	}
	cfg.Prefix = ""
	if got := cfg.ObjectKey("abc"); got != "abc.json" {
		t.Fatalf("ObjectKey()=%q", got)
	}
}
