package qr

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    Payload
		wantErr bool
	}{
		{
			name:    "colon token",
			payload: "rest-1:table-3-qr",
			want:    Payload{VenueID: "rest-1", TableCode: "table-3-qr"},
		},
		{
			name:    "colon token without table",
			payload: "fc-1:",
			want:    Payload{VenueID: "fc-1"},
		},
		{
			name:    "scan url",
			payload: "https://qrdine.app/scan?merchant=rest-1&table=table-1-qr",
			want:    Payload{VenueID: "rest-1", TableCode: "table-1-qr"},
		},
		{
			name:    "scan url without table",
			payload: "http://localhost:5173/scan?merchant=fc-1",
			want:    Payload{VenueID: "fc-1"},
		},
		{
			name:    "surrounding whitespace",
			payload: "  rest-1:table-2-qr \n",
			want:    Payload{VenueID: "rest-1", TableCode: "table-2-qr"},
		},
		{
			name:    "no colon and not a url",
			payload: "not-a-valid-code",
			wantErr: true,
		},
		{
			name:    "missing venue",
			payload: ":table-1-qr",
			wantErr: true,
		},
		{
			name:    "url without merchant",
			payload: "https://qrdine.app/scan?table=table-1-qr",
			wantErr: true,
		},
		{
			name:    "empty",
			payload: "   ",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.payload)
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedPayload) {
					t.Fatalf("expected ErrMalformedPayload, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestLinkRoundTrip(t *testing.T) {
	p := Payload{VenueID: "rest-1", TableCode: "table-4-qr"}
	got, err := Parse(Link("https://qrdine.app/", p))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != p {
		t.Fatalf("expected %+v, got %+v", p, got)
	}

	got, err = Parse(Format(p))
	if err != nil || got != p {
		t.Fatalf("token round trip failed: %+v %v", got, err)
	}
}
