package models

// Formation is a training programme sold on the pricing page
type Formation struct {
	ID          string `json:"id" yaml:"id"`
	Slug        string `json:"slug" yaml:"slug"`
	Title       string `json:"title" yaml:"title"`
	Price       int64  `json:"price" yaml:"price"`
	Duration    string `json:"duration" yaml:"duration"`
	Description string `json:"description" yaml:"description"`
	Active      bool   `json:"active" yaml:"active"`
}

// FormationOffer is a formation with its amounts per payment option
type FormationOffer struct {
	Formation
	FullAmount        int64 `json:"full_amount"`
	InstallmentAmount int64 `json:"installment_amount"`
}
