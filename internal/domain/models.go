package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type IconKind string

const (
	IconSymbolic IconKind = "symbolic" // token resolved by the client icon set
	IconRemote   IconKind = "remote"   // absolute or root-relative URI
)

// Icon is either a symbolic token or a remote image reference.
type Icon struct {
	Kind  IconKind `json:"kind"`
	Value string   `json:"value"`
}

func SymbolicIcon(token string) Icon { return Icon{Kind: IconSymbolic, Value: token} }
func RemoteIcon(uri string) Icon { return Icon{Kind: IconRemote, Value: uri} }

// ParseIcon classifies a plain string coming from a form or legacy payload.
func ParseIcon(s string) Icon {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, p := range []string{"http://", "https://", "data:", "/"} {
		if strings.HasPrefix(lower, p) {
			return RemoteIcon(s)
		}
	}
	return SymbolicIcon(s)
}

// UnmarshalJSON accepts the tagged object or a plain string, which is
// classified with ParseIcon.
func (i *Icon) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*i = ParseIcon(s)
		return nil
	}
	type plain Icon
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*i = Icon(p)
	return nil
}

func (i Icon) Valid() bool {
	switch i.Kind {
	case IconSymbolic, IconRemote:
		return strings.TrimSpace(i.Value) != ""
	}
	return false
}

type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        Icon   `json:"icon"`
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        Icon   `json:"icon"`
}

type CategoryPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Icon        *Icon   `json:"icon"`
}

// Specification is a kind of characteristic that products reference by id.
type Specification struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Icon        Icon   `json:"icon"`
}

type SpecificationInput struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Icon        Icon   `json:"icon"`
}

type SpecificationPatch struct {
	Label       *string `json:"label"`
	Description *string `json:"description"`
	Icon        *Icon   `json:"icon"`
}

type ProductStatus string

const (
	StatusAvailable   ProductStatus = "Disponible"
	StatusReserved    ProductStatus = "Reservado"
	StatusMaintenance ProductStatus = "Mantenimiento"
)

func (s ProductStatus) Valid() bool {
	return s == StatusAvailable || s == StatusReserved || s == StatusMaintenance
}

const (
	MinImages = 1
	MaxImages = 6
)

type SpecValue struct {
	SpecificationID int    `json:"specificationId"`
	Value           string `json:"value"`
}

// Product is a rentable instrument.
type Product struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	CategoryID     int             `json:"categoryId"`
	PricePerDay    decimal.Decimal `json:"pricePerDay"`
	Stock          int             `json:"stock"`
	Status         ProductStatus   `json:"status"`
	Images         []string        `json:"images"`
	MainImage      string          `json:"mainImage"`
	Specifications []SpecValue     `json:"specifications"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func (p Product) Clone() Product {
	p.Images = append([]string{}, p.Images...)
	p.Specifications = append([]SpecValue{}, p.Specifications...)
	return p
}

type ProductInput struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	CategoryID     int             `json:"categoryId"`
	PricePerDay    decimal.Decimal `json:"pricePerDay"`
	Stock          int             `json:"stock"`
	Status         ProductStatus   `json:"status"`
	Images         []string        `json:"images"`
	Specifications []SpecValue     `json:"specifications"`
}

// ProductPatch carries only the fields to overwrite; nil means keep.
type ProductPatch struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	CategoryID     *int             `json:"categoryId"`
	PricePerDay    *decimal.Decimal `json:"pricePerDay"`
	Stock          *int             `json:"stock"`
	Status         *ProductStatus   `json:"status"`
	Images         *[]string        `json:"images"`
	Specifications *[]SpecValue     `json:"specifications"`
}

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationEnded     ReservationStatus = "ENDED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

type Reservation struct {
	ID           int               `json:"id"`
	InstrumentID int               `json:"instrumentId"`
	UserID       int               `json:"userId"`
	StartDate    Date              `json:"startDate"`
	EndDate      Date              `json:"endDate"`
	Quantity     int               `json:"quantity"`
	TotalDays    int               `json:"totalDays"`
	TotalPrice   decimal.Decimal   `json:"totalPrice"`
	Status       ReservationStatus `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Covers reports whether d falls inside the inclusive reservation range.
func (r Reservation) Covers(d Date) bool {
	return !d.Before(r.StartDate) && !d.After(r.EndDate)
}

type Rating struct {
	ID           int       `json:"id"`
	InstrumentID int       `json:"instrumentId"`
	UserID       int       `json:"userId"`
	Score        int       `json:"score"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Favorite struct {
	UserID       int       `json:"userId"`
	InstrumentID int       `json:"instrumentId"`
	CreatedAt    time.Time `json:"createdAt"`
}
