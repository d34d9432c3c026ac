package handlers

import (
	"fmt"
	"strings"

	"github.com/isdelr/ender-catalog-be/internal/models"
)

// userView adds presentation-only fields to a user.
type userView struct {
	models.User
	FullName string `json:"fullName"`
}

func newUserView(u models.User) userView {
	u = u.Public()
	return userView{
		User:     u,
		FullName: strings.TrimSpace(u.FirstName + " " + u.LastName),
	}
}

// productView adds presentation-only fields to a product.
type productView struct {
	models.Product
	FormattedPrice string `json:"formattedPrice"`
}

func newProductView(p models.Product) productView {
	return productView{
		Product:        p,
		FormattedPrice: fmt.Sprintf("$%.2f", p.Price),
	}
}

func newProductViews(products []models.Product) []productView {
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p))
	}
	return views
}
