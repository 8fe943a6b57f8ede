package catalog

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Defaults возвращает ассортимент кондитерской по умолчанию.
func Defaults() []domain.Product {
	return []domain.Product{
		{ID: "item_1", Name: `Торт "Наполеон"`, Price: 35000, Available: true},
		{ID: "item_2", Name: "Эклер шоколадный", Price: 12000, Available: true},
		{ID: "item_3", Name: `Пирожное "Картошка"`, Price: 8000, Available: true},
		{ID: "item_4", Name: "Чизкейк классический", Price: 28000, Available: true},
		{ID: "item_5", Name: "Макарон ассорти (5 шт)", Price: 45000, Available: true},
	}
}

type fileProduct struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Price       float64 `yaml:"price"`
	PhotoURL    string  `yaml:"photo_url"`
	Category    string  `yaml:"category"`
	Description string  `yaml:"description"`
	Available   *bool   `yaml:"available"`
}

type fileCatalog struct {
	Products []fileProduct `yaml:"products"`
}

// LoadFile читает каталог из YAML-файла вида:
//
//	products:
//	  - id: item_1
//	    name: Торт "Наполеон"
//	    price: 350
func LoadFile(path string) ([]domain.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(raw)
}

// Parse разбирает YAML-каталог; цены указываются в рублях.
func Parse(raw []byte) ([]domain.Product, error) {
	var file fileCatalog
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(file.Products) == 0 {
		return nil, fmt.Errorf("catalog has no products")
	}

	products := make([]domain.Product, 0, len(file.Products))
	seen := make(map[string]struct{}, len(file.Products))
	for i, fp := range file.Products {
		if _, dup := seen[fp.ID]; dup {
			return nil, fmt.Errorf("products[%d]: duplicate id %q", i, fp.ID)
		}
		seen[fp.ID] = struct{}{}

		price, err := domain.MoneyFromMajor(decimal.NewFromFloat(fp.Price))
		if err != nil {
			return nil, fmt.Errorf("products[%d]: %w", i, err)
		}
		available := true
		if fp.Available != nil {
			available = *fp.Available
		}
		p := domain.Product{
			ID:          fp.ID,
			Name:        fp.Name,
			Price:       price,
			PhotoURL:    fp.PhotoURL,
			Category:    fp.Category,
			Description: fp.Description,
			Available:   available,
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("products[%d]: %w", i, err)
		}
		products = append(products, p)
	}
	return products, nil
}
