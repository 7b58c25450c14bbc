package domain

// Cosmetic grade labels recognized by the final price calculation.
const (
	CosmeticPerfect = "perfect"
	CosmeticGood    = "good"
	CosmeticFair    = "fair"
)

// InspectionReport captures the physical inspection of a received device.
type InspectionReport struct {
	Condition         Condition         `json:"condition"`
	FunctionalityTest map[string]bool   `json:"functionalityTest"`
	Cosmetic          map[string]string `json:"cosmetic"`
	Accessories       []string          `json:"accessories"`
	Notes             string            `json:"notes"`
}
