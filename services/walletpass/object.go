package walletpass

import (
	"fmt"

	"smallbiznis-stampcard/services/stampcard"
)

const (
	stateActive = "ACTIVE"
	barcodeQR   = "QR_CODE"
	language    = "en"

	textModulePoints = "points"
	textModuleStamps = "stamps"
	imageModuleCard  = "stamp_card"
)

// LoyaltyObject is the subset of the provider's loyalty object resource this
// service writes. Every field is optional so the same type serves as a PATCH body.
type LoyaltyObject struct {
	ID                 string            `json:"id,omitempty"`
	ClassID            string            `json:"classId,omitempty"`
	State              string            `json:"state,omitempty"`
	AccountID          string            `json:"accountId,omitempty"`
	AccountName        string            `json:"accountName,omitempty"`
	HexBackgroundColor string            `json:"hexBackgroundColor,omitempty"`
	Header             *LocalizedString  `json:"header,omitempty"`
	Subheader          *LocalizedString  `json:"subheader,omitempty"`
	LoyaltyPoints      *LoyaltyPoints    `json:"loyaltyPoints,omitempty"`
	Barcode            *Barcode          `json:"barcode,omitempty"`
	HeroImage          *Image            `json:"heroImage,omitempty"`
	TextModulesData    []TextModuleData  `json:"textModulesData,omitempty"`
	ImageModulesData   []ImageModuleData `json:"imageModulesData,omitempty"`
}

type LocalizedString struct {
	DefaultValue TranslatedString `json:"defaultValue"`
}

type TranslatedString struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

func localized(v string) *LocalizedString {
	return &LocalizedString{DefaultValue: TranslatedString{Language: language, Value: v}}
}

type LoyaltyPoints struct {
	Label   string         `json:"label"`
	Balance LoyaltyBalance `json:"balance"`
}

type LoyaltyBalance struct {
	Int int64 `json:"int"`
}

type Barcode struct {
	Type          string `json:"type"`
	Value         string `json:"value"`
	AlternateText string `json:"alternateText,omitempty"`
}

type Image struct {
	SourceURI          ImageURI         `json:"sourceUri"`
	ContentDescription *LocalizedString `json:"contentDescription,omitempty"`
}

type ImageURI struct {
	URI string `json:"uri"`
}

type TextModuleData struct {
	ID     string `json:"id"`
	Header string `json:"header"`
	Body   string `json:"body"`
}

type ImageModuleData struct {
	ID        string `json:"id"`
	MainImage Image  `json:"mainImage"`
}

func stampProgress(stamps int) string {
	return fmt.Sprintf("%d / %d", stampcard.CycleProgress(stamps), stampcard.MaxSlots)
}

func pointsBalance(points int64) *LoyaltyPoints {
	return &LoyaltyPoints{Label: "Points", Balance: LoyaltyBalance{Int: points}}
}

func textModules(points int64, stamps int) []TextModuleData {
	return []TextModuleData{
		{ID: textModulePoints, Header: "Cashback points", Body: fmt.Sprintf("%d", points)},
		{ID: textModuleStamps, Header: "Stamps", Body: stampProgress(stamps)},
	}
}

func cardImage(uri string, stamps int) *Image {
	if uri == "" {
		return nil
	}
	return &Image{
		SourceURI:          ImageURI{URI: uri},
		ContentDescription: localized(fmt.Sprintf("Stamp card, %s", stampProgress(stamps))),
	}
}

// NewLoyaltyObject builds the full object embedded in a save-to-wallet token.
func NewLoyaltyObject(cfg GoogleConfig, sprites stampcard.SpriteTable, c Customer) LoyaltyObject {
	obj := LoyaltyObject{
		ID:              ObjectID(cfg.IssuerID, c.ID),
		ClassID:         cfg.ClassID,
		State:           stateActive,
		AccountID:       c.ID,
		AccountName:     c.Name,
		LoyaltyPoints:   pointsBalance(c.CashbackPoints),
		Barcode:         &Barcode{Type: barcodeQR, Value: c.ID, AlternateText: c.ID},
		TextModulesData: textModules(c.CashbackPoints, c.Stamps),
	}

	if img := cardImage(sprites.ProgressURL(c.Stamps), c.Stamps); img != nil {
		obj.ImageModulesData = []ImageModuleData{{ID: imageModuleCard, MainImage: *img}}
	}
	return obj
}
