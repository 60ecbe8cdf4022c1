package broken

//modelgen:contract
type Order struct {
	Total float64 `model:"extension"`
}
