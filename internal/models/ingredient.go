package models

// Default values applied when a line carries no recognizable quantity.
const (
	DefaultQuantity = "1"
	DefaultUnit     = "piece"

	// ParsedConfidence is assigned to every ingredient produced by the text parser.
	ParsedConfidence = 0.8
	// ManualConfidence is assigned to ingredients entered or corrected by a user.
	ManualConfidence = 1.0
)

// Ingredient is a single structured item extracted from a grocery list
type Ingredient struct {
	Name       string  `json:"name"`
	Quantity   string  `json:"quantity"`
	Unit       string  `json:"unit"`
	Confidence float64 `json:"confidence"`
}

// IngredientInput is the client-supplied form of an ingredient.
// Missing quantity and unit fall back to the parser defaults.
type IngredientInput struct {
	Name     string  `json:"name"`
	Quantity *string `json:"quantity,omitempty"`
	Unit     *string `json:"unit,omitempty"`
}

// ToIngredient converts the input into a manual ingredient
func (in IngredientInput) ToIngredient() Ingredient {
	ing := Ingredient{
		Name:       in.Name,
		Quantity:   DefaultQuantity,
		Unit:       DefaultUnit,
		Confidence: ManualConfidence,
	}
	if in.Quantity != nil && *in.Quantity != "" {
		ing.Quantity = *in.Quantity
	}
	if in.Unit != nil && *in.Unit != "" {
		ing.Unit = *in.Unit
	}
	return ing
}

// IngredientNames returns the names of the ingredients in order
func IngredientNames(ingredients []Ingredient) []string {
	names := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		names = append(names, ing.Name)
	}
	return names
}
