package device

import (
	"errors"
	"testing"
)

func TestExternalID(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
	}{
		{
			name:    "lowercase with colons",
			address: "a4:c1:38:5b:12:ef",
			want:    "0xA4C1385B12EF",
		},
		{
			name:    "already canonical",
			address: "A4:C1:38:5B:12:EF",
			want:    "0xA4C1385B12EF",
		},
		{
			name:    "no separators",
			address: "a4c1385b12ef",
			want:    "0xA4C1385B12EF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExternalID(tt.address); got != tt.want {
				t.Errorf("ExternalID(%q) = %q, want %q", tt.address, got, tt.want)
			}
		})
	}
}

func TestModelFromName(t *testing.T) {
	tests := []struct {
		name   string
		advert string
		want   string
	}{
		{
			name:   "standard govee name",
			advert: "ihoment_H7020_A1B2",
			want:   "H7020",
		},
		{
			name:   "two segments returned unchanged",
			advert: "ihoment_H7020",
			want:   "ihoment_H7020",
		},
		{
			name:   "plain name returned unchanged",
			advert: "kitchen-lamp",
			want:   "kitchen-lamp",
		},
		{
			name:   "empty name",
			advert: "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ModelFromName(tt.advert); got != tt.want {
				t.Errorf("ModelFromName(%q) = %q, want %q", tt.advert, got, tt.want)
			}
		})
	}
}

func TestRegistry_UpsertNewDevice(t *testing.T) {
	r := NewRegistry()

	rec, isNew, changed := r.Upsert("a4:c1:38:5b:12:ef", "ihoment_H7020_A1B2", []byte{0, 0, 0, 0, 1})

	if !isNew {
		t.Error("isNew = false, want true")
	}
	if changed {
		t.Error("changed = true for a new device, want false")
	}
	if rec.ExternalID != "0xA4C1385B12EF" {
		t.Errorf("ExternalID = %q, want 0xA4C1385B12EF", rec.ExternalID)
	}
	if rec.Address != "A4:C1:38:5B:12:EF" {
		t.Errorf("Address = %q, want canonical uppercase", rec.Address)
	}
	if rec.Model != "H7020" {
		t.Errorf("Model = %q, want H7020", rec.Model)
	}
	if !rec.PowerState() {
		t.Error("PowerState() = false, want true")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestRegistry_UpsertDetectsStateChange(t *testing.T) {
	r := NewRegistry()

	r.Upsert("AA:BB:CC:DD:EE:FF", "ihoment_H7020_A1B2", []byte{0, 0, 0, 0, 1})

	// Identical data: no change.
	_, isNew, changed := r.Upsert("AA:BB:CC:DD:EE:FF", "ihoment_H7020_A1B2", []byte{0, 0, 0, 0, 1})
	if isNew || changed {
		t.Errorf("identical upsert: isNew=%v changed=%v, want false/false", isNew, changed)
	}

	// Power flag flips: change.
	rec, isNew, changed := r.Upsert("AA:BB:CC:DD:EE:FF", "ihoment_H7020_A1B2", []byte{0, 0, 0, 0, 0})
	if isNew {
		t.Error("isNew = true for known device")
	}
	if !changed {
		t.Error("changed = false after manufacturer data changed, want true")
	}
	if rec.PowerState() {
		t.Error("PowerState() = true after power-off advertisement")
	}
}

func TestRegistry_UpsertCaseInsensitiveAddress(t *testing.T) {
	r := NewRegistry()

	r.Upsert("aa:bb:cc:dd:ee:ff", "ihoment_H7020_A1B2", nil)
	_, isNew, _ := r.Upsert("AA:BB:CC:DD:EE:FF", "ihoment_H7020_A1B2", nil)

	if isNew {
		t.Error("address case variant created a second record")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestRegistry_UpsertKeepsNameThroughNamelessFrames(t *testing.T) {
	r := NewRegistry()

	r.Upsert("AA:BB:CC:DD:EE:FF", "ihoment_H7020_A1B2", nil)
	rec, _, _ := r.Upsert("AA:BB:CC:DD:EE:FF", "", []byte{0, 0, 0, 0, 1})

	if rec.Name != "ihoment_H7020_A1B2" {
		t.Errorf("Name = %q after nameless frame, want original", rec.Name)
	}
	if rec.Model != "H7020" {
		t.Errorf("Model = %q after nameless frame, want H7020", rec.Model)
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	r.Upsert("AA:BB:CC:DD:EE:FF", "ihoment_H7020_A1B2", []byte{1, 2, 3, 4, 5})

	rec, err := r.Get("0xAABBCCDDEEFF")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if rec.Model != "H7020" {
		t.Errorf("Model = %q, want H7020", rec.Model)
	}

	// Mutating the returned slice must not affect the registry.
	rec.ManufacturerData[4] = 0xFF
	again, _ := r.Get("0xAABBCCDDEEFF")
	if again.ManufacturerData[4] != 5 {
		t.Error("returned manufacturer data aliases registry state")
	}

	if _, err := r.Get("0x000000000000"); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("Get(unknown) error = %v, want ErrUnknownDevice", err)
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	r.Upsert("AA:BB:CC:DD:EE:01", "ihoment_H7020_A1B2", nil)
	r.Upsert("AA:BB:CC:DD:EE:02", "ihoment_H6199_C3D4", nil)

	records := r.List()
	if len(records) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(records))
	}

	models := map[string]bool{}
	for _, rec := range records {
		models[rec.Model] = true
	}
	if !models["H7020"] || !models["H6199"] {
		t.Errorf("List() models = %v, want H7020 and H6199", models)
	}
}

func TestRecord_PowerStateShortData(t *testing.T) {
	rec := Record{ManufacturerData: []byte{1, 2, 3}}
	if rec.PowerState() {
		t.Error("PowerState() = true for short manufacturer data, want false")
	}
}
