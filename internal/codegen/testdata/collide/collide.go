package collide

//modelgen:contract
type Session struct {
	Token string
	Reset bool
}
