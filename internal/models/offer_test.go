package models

import (
	"testing"
)

func TestOffer_Validate(t *testing.T) {
	valid := Offer{
		ID:        "billet-42",
		Slug:      "indochine-paris",
		EventName: "Indochine",
		Category:  "Catégorie 1",
		Price:     89.90,
		Quantity:  4,
		Available: true,
		EventDate: "2026-06-27",
		ZoneID:    "zone-l1",
	}

	tests := []struct {
		name    string
		mutate  func(o *Offer)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid offer",
			mutate: func(o *Offer) {},
		},
		{
			name:    "missing id",
			mutate:  func(o *Offer) { o.ID = "" },
			wantErr: true,
			errMsg:  "offer id is required",
		},
		{
			name:    "missing slug",
			mutate:  func(o *Offer) { o.Slug = "" },
			wantErr: true,
			errMsg:  "offer slug is required",
		},
		{
			name:    "negative price",
			mutate:  func(o *Offer) { o.Price = -1 },
			wantErr: true,
			errMsg:  "offer price cannot be negative",
		},
		{
			name:    "negative quantity",
			mutate:  func(o *Offer) { o.Quantity = -3 },
			wantErr: true,
			errMsg:  "offer quantity cannot be negative",
		},
		{
			name:    "bad date format",
			mutate:  func(o *Offer) { o.EventDate = "27/06/2026" },
			wantErr: true,
			errMsg:  "event date must be YYYY-MM-DD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer := valid
			tt.mutate(&offer)

			err := offer.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if err.Error() != tt.errMsg {
					t.Errorf("expected error %q, got %q", tt.errMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestOffer_PriceMinorUnits(t *testing.T) {
	tests := []struct {
		price float64
		want  int
	}{
		{price: 89.90, want: 8990},
		{price: 0, want: 0},
		{price: 120, want: 12000},
		{price: 59.995, want: 6000}, // rounds, matching the checkout builder
	}

	for _, tt := range tests {
		o := Offer{Price: tt.price}
		if got := o.PriceMinorUnits(); got != tt.want {
			t.Errorf("PriceMinorUnits(%v) = %d, want %d", tt.price, got, tt.want)
		}
	}
}

func TestOffer_InStock(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		available bool
		want      bool
	}{
		{name: "stock and available", quantity: 2, available: true, want: true},
		{name: "zero stock", quantity: 0, available: true, want: false},
		{name: "flagged unavailable", quantity: 5, available: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Offer{Quantity: tt.quantity, Available: tt.available}
			if got := o.InStock(); got != tt.want {
				t.Errorf("InStock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrder_Validate(t *testing.T) {
	valid := Order{
		SessionID:     "cs_test_abc123",
		Reference:     "3f1d9a34-9f5e-4c1a-bb6e-0c9d2f8a7e11",
		Email:         "fan@example.com",
		TotalQuantity: 2,
		TotalAmount:   17980,
	}

	tests := []struct {
		name    string
		mutate  func(o *Order)
		wantErr bool
	}{
		{name: "valid order", mutate: func(o *Order) {}},
		{name: "missing session id", mutate: func(o *Order) { o.SessionID = "" }, wantErr: true},
		{name: "missing reference", mutate: func(o *Order) { o.Reference = "" }, wantErr: true},
		{name: "negative total", mutate: func(o *Order) { o.TotalAmount = -1 }, wantErr: true},
		{name: "bad email", mutate: func(o *Order) { o.Email = "not-an-email" }, wantErr: true},
		{name: "empty email allowed", mutate: func(o *Order) { o.Email = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := valid
			tt.mutate(&order)

			err := order.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}
