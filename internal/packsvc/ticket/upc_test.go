package ticket

import (
	"errors"
	"sort"
	"testing"
)

func TestGenerateUPCs(t *testing.T) {
	t.Run("known pack", func(t *testing.T) {
		upcs, err := GenerateUPCs("0033", "5633005", 15)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(upcs) != 15 {
			t.Fatalf("expected 15 UPCs, got %d", len(upcs))
		}
		if upcs[0] != "035633005000" {
			t.Fatalf("expected first UPC 035633005000, got %s", upcs[0])
		}
		if upcs[14] != "035633005014" {
			t.Fatalf("expected last UPC 035633005014, got %s", upcs[14])
		}
	})

	t.Run("strictly increasing fixed length", func(t *testing.T) {
		upcs, err := GenerateUPCs("1234", "42", 250)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !sort.StringsAreSorted(upcs) {
			t.Fatal("expected UPCs sorted ascending")
		}
		for i, u := range upcs {
			if len(u) != UPCLength {
				t.Fatalf("UPC %d has length %d", i, len(u))
			}
			if i > 0 && upcs[i-1] >= u {
				t.Fatalf("UPC %d not strictly greater than predecessor", i)
			}
		}
	})

	t.Run("short pack number is padded", func(t *testing.T) {
		upcs, err := GenerateUPCs("7701", "9", 1)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if upcs[0] != "770000009000" {
			t.Fatalf("expected 770000009000, got %s", upcs[0])
		}
	})

	invalid := []struct {
		name       string
		gameCode   string
		packNumber string
		count      int
		want       error
	}{
		{"game code too short", "123", "5633005", 10, ErrInvalidGameCode},
		{"game code alpha", "12a4", "5633005", 10, ErrInvalidGameCode},
		{"game code too long", "12345", "5633005", 10, ErrInvalidGameCode},
		{"pack number empty", "1234", "", 10, ErrInvalidPackNumber},
		{"pack number too long", "1234", "12345678", 10, ErrInvalidPackNumber},
		{"pack number alpha", "1234", "56x", 10, ErrInvalidPackNumber},
		{"count zero", "1234", "5633005", 0, ErrInvalidTicketCount},
		{"count negative", "1234", "5633005", -3, ErrInvalidTicketCount},
		{"count too large", "1234", "5633005", 1000, ErrInvalidTicketCount},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GenerateUPCs(tc.gameCode, tc.packNumber, tc.count)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseUPC(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		upcs, err := GenerateUPCs("0033", "5633005", 15)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for i, s := range upcs {
			u := ParseUPC(s)
			if u == nil {
				t.Fatalf("expected %s to parse", s)
			}
			if u.GamePrefix != "03" || u.PackNumber != "5633005" || u.Position != i {
				t.Fatalf("unexpected decode of %s: %+v", s, u)
			}
			if u.String() != s {
				t.Fatalf("expected re-encode %s, got %s", s, u.String())
			}
		}
	})

	t.Run("malformed returns nil", func(t *testing.T) {
		for _, s := range []string{"", "03563300500", "0356330050001", "03563300500x", "abc"} {
			if got := ParseUPC(s); got != nil {
				t.Fatalf("expected nil for %q, got %+v", s, got)
			}
		}
	})
}
