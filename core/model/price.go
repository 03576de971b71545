package model

// PriceSlot is a single hour of the electricity price curve.
type PriceSlot struct {
	Hour  int     `json:"hour"`
	Price float64 `json:"price"`
}

// PriceWindow is a contiguous run of price slots.
type PriceWindow struct {
	StartHour   int         `json:"start_hour"`
	EndHour     int         `json:"end_hour"`
	WindowHours int         `json:"window_hours"`
	AvgPrice    float64     `json:"avg_price"`
	Slots       []PriceSlot `json:"slots"`
}
