package models

// ShopInfo is the shop's own profile, stored under the shop_info key.
// ShopName travels with the order-ready notification payload.
type ShopInfo struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	TailorName string `json:"tailorName"`
	ExtraNotes string `json:"extraNotes,omitempty"`
}

// MeasurementLabel is one entry of the configurable measurement field set.
// Keys are what customer measurements and order style details are keyed by;
// labels are display-only and may be renamed freely.
type MeasurementLabel struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// DefaultMeasurementLabels seeds the measurement_labels blob on first run.
func DefaultMeasurementLabels() []MeasurementLabel {
	return []MeasurementLabel{
		{Key: "height", Label: "Height"},
		{Key: "weight", Label: "Weight"},
		{Key: "neck", Label: "Neck"},
		{Key: "shoulder", Label: "Shoulder"},
		{Key: "chest", Label: "Chest"},
		{Key: "waist", Label: "Waist"},
		{Key: "hip", Label: "Hip"},
		{Key: "sleeveLength", Label: "Sleeve length"},
		{Key: "armhole", Label: "Armhole"},
		{Key: "wrist", Label: "Wrist"},
		{Key: "backWidth", Label: "Back width"},
		{Key: "frontLength", Label: "Front length"},
		{Key: "backLength", Label: "Back length"},
		{Key: "inseam", Label: "Inseam"},
		{Key: "outseam", Label: "Outseam"},
		{Key: "thigh", Label: "Thigh"},
		{Key: "ankle", Label: "Ankle"},
	}
}
