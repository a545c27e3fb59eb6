package repos

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"alquitones/internal/domain"
)

// DefaultSeed builds the demo catalogue written on first start.
func DefaultSeed(now time.Time, cost int) (*Snapshot, error) {
	type u struct {
		Username, Email, Password string
		Role                      domain.Role
		Active                    bool
	}
	seedUsers := []u{
		{"admin", "admin@alquitones.com", "admin123", domain.RoleAdmin, true},
		{"lucia", "lucia@alquitones.com", "cliente123", domain.RoleClient, true},
		{"mateo", "mateo@alquitones.com", "cliente123", domain.RoleClient, true},
		{"inactivo", "inactivo@alquitones.com", "cliente123", domain.RoleClient, false},
	}

	s := EmptySnapshot()
	for i, x := range seedUsers {
		h, err := bcrypt.GenerateFromPassword([]byte(x.Password), cost)
		if err != nil {
			return nil, err
		}
		s.Users = append(s.Users, domain.User{
			ID: i + 1, Username: x.Username, Email: x.Email, PasswordHash: string(h),
			Role: x.Role, CreatedAt: now, IsActive: x.Active,
		})
	}

	s.Categories = []domain.Category{
		{ID: 1, Name: "Guitarras", Description: "Acústicas, eléctricas y clásicas", Icon: domain.SymbolicIcon("guitar")},
		{ID: 2, Name: "Teclados", Description: "Pianos digitales, sintetizadores y controladores", Icon: domain.SymbolicIcon("piano")},
		{ID: 3, Name: "Percusión", Description: "Baterías, cajones y percusión menor", Icon: domain.SymbolicIcon("drum")},
		{ID: 4, Name: "Vientos", Description: "Saxos, trompetas y flautas", Icon: domain.SymbolicIcon("saxophone")},
		{ID: 5, Name: "Cuerdas frotadas", Description: "Violines, violas y chelos", Icon: domain.SymbolicIcon("violin")},
		{ID: 6, Name: "Audio", Description: "Amplificadores y sonido en vivo", Icon: domain.RemoteIcon("/static/icons/speaker.svg")},
	}

	s.Specifications = []domain.Specification{
		{ID: 1, Label: "Marca", Description: "Fabricante del instrumento", Icon: domain.SymbolicIcon("tag")},
		{ID: 2, Label: "Modelo", Description: "Modelo o serie", Icon: domain.SymbolicIcon("info")},
		{ID: 3, Label: "Material", Description: "Material principal del cuerpo", Icon: domain.SymbolicIcon("layers")},
		{ID: 4, Label: "Color", Description: "Acabado", Icon: domain.SymbolicIcon("palette")},
		{ID: 5, Label: "Incluye estuche", Description: "Se entrega con estuche o funda", Icon: domain.SymbolicIcon("briefcase")},
	}

	img := func(slug string, n int) []string {
		out := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			out = append(out, "/media/instruments/"+slug+"/"+string(rune('0'+i))+".jpg")
		}
		return out
	}
	type p struct {
		Name, Description string
		Category          int
		Price             string
		Stock             int
		Status            domain.ProductStatus
		Slug              string
		Images            int
		Specs             []domain.SpecValue
	}
	seedProducts := []p{
		{"Fender Stratocaster", "Guitarra eléctrica de cuerpo sólido, tres pastillas single-coil", 1, "35", 2, domain.StatusAvailable, "stratocaster", 4,
			[]domain.SpecValue{{SpecificationID: 1, Value: "Fender"}, {SpecificationID: 2, Value: "Player Series"}, {SpecificationID: 4, Value: "Sunburst"}}},
		{"Yamaha C40", "Guitarra clásica ideal para estudiantes", 1, "12.5", 3, domain.StatusAvailable, "yamaha-c40", 2,
			[]domain.SpecValue{{SpecificationID: 1, Value: "Yamaha"}, {SpecificationID: 3, Value: "Abeto"}}},
		{"Roland FP-30X", "Piano digital de 88 teclas con acción martillo", 2, "40", 1, domain.StatusAvailable, "roland-fp30x", 3,
			[]domain.SpecValue{{SpecificationID: 1, Value: "Roland"}, {SpecificationID: 5, Value: "No"}}},
		{"Korg Minilogue", "Sintetizador analógico polifónico de cuatro voces", 2, "30", 1, domain.StatusMaintenance, "korg-minilogue", 2,
			[]domain.SpecValue{{SpecificationID: 1, Value: "Korg"}}},
		{"Pearl Export", "Batería acústica de cinco cuerpos con platos", 3, "55", 1, domain.StatusAvailable, "pearl-export", 5,
			[]domain.SpecValue{{SpecificationID: 1, Value: "Pearl"}, {SpecificationID: 4, Value: "Negro"}}},
		{"Cajón flamenco LP", "Cajón peruano con bordonera ajustable", 3, "10", 4, domain.StatusAvailable, "cajon-lp", 1, nil},
		{"Yamaha YAS-280", "Saxofón alto para estudiantes", 4, "28", 2, domain.StatusAvailable, "yas-280", 3,
			[]domain.SpecValue{{SpecificationID: 1, Value: "Yamaha"}, {SpecificationID: 5, Value: "Sí"}}},
		{"Violín Stentor 4/4", "Violín completo con arco y estuche", 5, "18", 2, domain.StatusAvailable, "stentor", 2,
			[]domain.SpecValue{{SpecificationID: 1, Value: "Stentor"}, {SpecificationID: 5, Value: "Sí"}}},
		{"Marshall DSL40", "Amplificador valvular de 40 W para guitarra", 6, "25", 1, domain.StatusReserved, "marshall-dsl40", 6, nil},
	}
	for i, x := range seedProducts {
		images := img(x.Slug, x.Images)
		s.Products = append(s.Products, domain.Product{
			ID: i + 1, Name: x.Name, Description: x.Description, CategoryID: x.Category,
			PricePerDay: decimal.RequireFromString(x.Price), Stock: x.Stock, Status: x.Status,
			Images: images, MainImage: images[0], Specifications: append([]domain.SpecValue{}, x.Specs...),
			CreatedAt: now,
		})
	}
	return s, nil
}
