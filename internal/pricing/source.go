package pricing

// Customization type tags as sent by the kiosk UI.
const (
	TypeAITextImage      = "ai_text_image"
	TypeUploadedImage    = "uploaded_image"
	TypeSticker          = "sticker"
	TypeLibraryDesign    = "library_design"
	TypeMultiLibrary     = "multi_library_design"
	TypeEmbroideryText   = "embroidery_text"
	TypeEmbroideryDesign = "embroidery_design"
	TypeAIDrawImage      = "ai_draw_image"
)

// Source is the pricing class of a customization. Every cost rule switches
// over Source, so a new class must be handled in each of them.
type Source int

const (
	SourcePlain Source = iota
	SourceAI
	SourceOwnPhoto
	SourceLibrary
	SourceEmbroideryText
	SourceEmbroideryDesign
	SourceAIDraw
	SourceOther
)

// Sources lists every class.
var Sources = []Source{
	SourcePlain,
	SourceAI,
	SourceOwnPhoto,
	SourceLibrary,
	SourceEmbroideryText,
	SourceEmbroideryDesign,
	SourceAIDraw,
	SourceOther,
}

func (s Source) String() string {
	switch s {
	case SourcePlain:
		return "PLAIN"
	case SourceAI:
		return "AI"
	case SourceOwnPhoto:
		return "OWN_PHOTO"
	case SourceLibrary:
		return "LIBRARY"
	case SourceEmbroideryText:
		return "EMBROIDERY_TEXT"
	case SourceEmbroideryDesign:
		return "EMBROIDERY_DESIGN"
	case SourceAIDraw:
		return "AI_DRAW"
	case SourceOther:
		return "OTHER"
	}
	return "UNKNOWN"
}

// Classify maps a customization type tag to its pricing class.
func Classify(customizationType string) Source {
	switch customizationType {
	case "":
		return SourcePlain
	case TypeAITextImage:
		return SourceAI
	case TypeUploadedImage, TypeSticker:
		return SourceOwnPhoto
	case TypeLibraryDesign, TypeMultiLibrary:
		return SourceLibrary
	case TypeEmbroideryText:
		return SourceEmbroideryText
	case TypeEmbroideryDesign:
		return SourceEmbroideryDesign
	case TypeAIDrawImage:
		return SourceAIDraw
	default:
		return SourceOther
	}
}

// creative reports whether the class triggers the item-wide design add-on.
func (s Source) creative() bool {
	switch s {
	case SourceAI, SourceOwnPhoto, SourceAIDraw:
		return true
	case SourcePlain, SourceLibrary, SourceEmbroideryText, SourceEmbroideryDesign, SourceOther:
		return false
	}
	return false
}

// rasterPrinted reports whether the class is priced by print coverage.
// Library designs flagged flat-fee-only are excluded by the caller.
func (s Source) rasterPrinted() bool {
	switch s {
	case SourceAI, SourceOwnPhoto, SourceAIDraw, SourceLibrary:
		return true
	case SourcePlain, SourceEmbroideryText, SourceEmbroideryDesign, SourceOther:
		return false
	}
	return false
}

func classOf(c *Customization) Source {
	if c == nil {
		return SourcePlain
	}
	return Classify(c.Type)
}
