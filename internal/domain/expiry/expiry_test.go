package expiry

import (
	"testing"
	"time"
)

func TestCompute_Forever(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	for _, typ := range []Type{TypeForever, ""} {
		got, err := Spec{Type: typ}.Compute(now)
		if err != nil {
			t.Fatalf("Compute(%q) error: %v", typ, err)
		}
		if got != nil {
			t.Fatalf("Compute(%q): expected nil valid_until, got %v", typ, got)
		}
	}
}

func TestCompute_Days(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	got, err := Spec{Type: TypeDays, Days: 7}.Compute(now)
	if err != nil {
		t.Fatalf("Compute error: %v", err)
	}
	want := now.Add(7 * 24 * time.Hour)
	if got == nil || !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if _, err := (Spec{Type: TypeDays, Days: 0}).Compute(now); err != ErrInvalidSpec {
		t.Fatalf("expected ErrInvalidSpec for days=0, got %v", err)
	}
	if _, err := (Spec{Type: TypeDays, Days: -3}).Compute(now); err != ErrInvalidSpec {
		t.Fatalf("expected ErrInvalidSpec for negative days, got %v", err)
	}
}

func TestCompute_Date(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	got, err := Spec{Type: TypeDate, Date: &date}.Compute(now)
	if err != nil {
		t.Fatalf("Compute error: %v", err)
	}
	if got == nil || !got.Equal(date) {
		t.Fatalf("expected literal date %v, got %v", date, got)
	}

	if _, err := (Spec{Type: TypeDate}).Compute(now); err != ErrInvalidSpec {
		t.Fatalf("expected ErrInvalidSpec for missing date, got %v", err)
	}
}

func TestCompute_UnknownType(t *testing.T) {
	if _, err := (Spec{Type: "whenever"}).Compute(time.Now()); err != ErrInvalidSpec {
		t.Fatalf("expected ErrInvalidSpec, got %v", err)
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	if IsExpired(nil, now) {
		t.Fatal("nil valid_until must never expire")
	}
	if !IsExpired(&past, now) {
		t.Fatal("past valid_until must be expired")
	}
	if IsExpired(&future, now) {
		t.Fatal("future valid_until must not be expired")
	}
	// El límite exacto todavía es válido (expira recién cuando now > valid_until).
	if IsExpired(&now, now) {
		t.Fatal("valid_until == now must not be expired yet")
	}
}
