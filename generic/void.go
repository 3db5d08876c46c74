package generic

// Void is the zero-size value type, used for set membership and results that carry no value.
type Void struct{}

func NewVoid() Void {
	return Void{}
}
