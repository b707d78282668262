package storage

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestReceiptKey(t *testing.T) {
	cases := []struct {
		venue, order, want string
	}{
		{venue: "rest-1", order: "o-1", want: "receipts/rest-1/o-1.pdf"},
		{venue: "../etc", order: "a/b", want: "receipts/___etc/a_b.pdf"},
		{venue: "", order: "o 2", want: "receipts/_/o_2.pdf"},
	}
	for _, tc := range cases {
		if got := ReceiptKey(tc.venue, tc.order); got != tc.want {
			t.Fatalf("ReceiptKey(%q, %q) = %q, want %q", tc.venue, tc.order, got, tc.want)
		}
	}
}

func TestPublicURL(t *testing.T) {
	s := &ObjectStore{publicBase: "https://cdn.example.com"}
	if got := s.PublicURL("/receipts/x.pdf"); got != "https://cdn.example.com/receipts/x.pdf" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := (&ObjectStore{}).PublicURL("receipts/x.pdf"); got != "" {
		t.Fatalf("store without public base must not build urls, got %q", got)
	}
}

func TestConfigEnabled(t *testing.T) {
	if (Config{Endpoint: "s3.local"}).Enabled() {
		t.Fatalf("bucket is required")
	}
	if !(Config{Endpoint: "s3.local", Bucket: "receipts"}).Enabled() {
		t.Fatalf("endpoint and bucket are enough")
	}
}

func TestParseStorageClass(t *testing.T) {
	if parseStorageClass(" ") != nil {
		t.Fatalf("blank class must be nil")
	}
	if sc := parseStorageClass("standard"); sc == nil || *sc != types.StorageClassStandard {
		t.Fatalf("unexpected class %v", sc)
	}
}
