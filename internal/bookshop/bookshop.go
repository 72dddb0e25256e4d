// Package bookshop holds the resources served by the apicore binary when
// it is run on its own: books, their authors and their reviews.
package bookshop

import (
	"time"

	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/metadata/resource"
)

type Author struct {
	ID        int        `json:"id" api:"identifier"`
	Name      string     `json:"name" validate:"not_blank,max=255" filter:"search=partial,order"`
	BirthDate *time.Time `json:"birthDate" filter:"date"`
}

type Book struct {
	ID          int        `json:"id" api:"identifier"`
	Isbn        *string    `json:"isbn" validate:"pattern=^[0-9-]+$" filter:"search=exact"`
	Title       string     `json:"title" validate:"not_blank,max=255" filter:"search=partial,order"`
	Description string     `json:"description" db:",type=text"`
	Price       float64    `json:"price" validate:"min=0" filter:"range,order"`
	PublishedAt *time.Time `json:"publishedAt" filter:"date,order"`
	Author      *Author    `json:"author"`
	Reviews     []*Review  `json:"reviews" api:"readableLink"`
	CreatedAt   time.Time  `json:"createdAt" api:"writable=false"`
	UpdatedAt   time.Time  `json:"updatedAt" api:"writable=false"`
}

func (Book) APIResources() []resource.Metadata {
	admin := "'ROLE_ADMIN' in roles"
	return []resource.Metadata{
		resource.New("Book").
			WithDescription("A book of the catalogue.").
			WithOperations(
				resource.Get(),
				resource.GetCollection(),
				resource.Post().WithSecurity(admin),
				resource.Put().WithSecurity(admin),
				resource.Patch().WithSecurity(admin),
				resource.Delete().WithSecurity(admin),
			),
	}
}

type Review struct {
	ID          int        `json:"id" api:"identifier"`
	Rating      int        `json:"rating" validate:"min=0,max=5" filter:"range"`
	Body        string     `json:"body" db:",type=text" validate:"not_blank"`
	Reviewer    string     `json:"reviewer" filter:"search"`
	Book        *Book      `json:"book"`
	PublishedAt *time.Time `json:"publishedAt"`
	DeletedAt   *time.Time `json:"deletedAt" api:"readable=false,writable=false"`
}

// Classes registers the bookshop resources
func Classes() (*class.Registry, error) {
	registry := class.NewRegistry()
	for name, sample := range map[string]interface{}{
		"Author": Author{},
		"Book":   Book{},
		"Review": Review{},
	} {
		if err := registry.Register(name, sample); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
