package pbadmin

type ProductType string

const (
	ProductFreebie ProductType = "freebie"
	ProductPremium ProductType = "premium"
	ProductPlus    ProductType = "plus"
)

// actionResource is the resource that runs panel actions for products of
// this type.
func (t ProductType) actionResource() (string, bool) {
	switch t {
	case ProductFreebie:
		return "freebies", true
	case ProductPremium:
		return "premia", true
	case ProductPlus:
		return "pluses", true
	}
	return "", false
}

// PaymentStatus is kept as the panel reports it.
type PaymentStatus string

type BannerType string

// BannerTop banners carry a color and a height.
const BannerTop BannerType = "top"

// CategoryPageMap maps category ids to the ids of their site pages. -1 is
// the page listing every category.
var CategoryPageMap = map[int]int{
	-1: 41, // all
	53: 16, // actions
	27: 17, // add-ons
	46: 18, // brushes
	58: 19, // bundles
	36: 20, // effects
	37: 21, // fonts
	47: 22, // graphics
	33: 23, // html
	31: 24, // icons
	49: 27, // logo templates
	39: 28, // mockups
	41: 29, // other
	44: 30, // patterns
	40: 31, // photo
	50: 32, // presentations
	48: 33, // social media
	56: 34, // sponsored
	38: 35, // templates
	45: 36, // textures
	59: 37, // time-limited
	35: 38, // ui/ux resources
	34: 39, // vectors
	60: 42, // text effects
}
