package purchase

import "github.com/congo-pay/datatopup/internal/profile"

// BuyDataRequest is the JSON body of POST /buy-data.
type BuyDataRequest struct {
	Price   profile.Amount `json:"price"`
	Network string         `json:"network"`
	Phone   string         `json:"phone"`
}

// BuyDataResponse is returned for a completed purchase.
type BuyDataResponse struct {
	Message    string  `json:"message"`
	NewBalance float64 `json:"new_balance"`
}
