// Package custody defines the equipment-custody records: people, materials,
// the equipment catalog and checkouts, with JSON names matching the
// relational columns.
package custody

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/cautela"
)

// Kind names an entity kind in remote storage and search indices.
type Kind string

const (
	KindPerson   Kind = "pessoa"
	KindMaterial Kind = "material"
	KindCatalog  Kind = "catalogo"
	KindCheckout Kind = "cautela"
)

// Kinds lists every entity kind.
func Kinds() []Kind {
	return []Kind{KindPerson, KindMaterial, KindCatalog, KindCheckout}
}

// ParseKind converts v into a Kind.
func ParseKind(v string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == v {
			return k, nil
		}
	}
	return "", errors.Wrapf(cautela.ErrInvalidOption, "unknown kind %q", v)
}

// Person is someone who can take or hand over equipment.
type Person struct {
	ID         int64  `json:"id_pessoa" dynamodbav:"id_pessoa"`
	Name       string `json:"nome" dynamodbav:"nome"`
	CPF        string `json:"cpf" dynamodbav:"cpf"`
	Enrollment string `json:"matricula" dynamodbav:"matricula"`
	Rank       string `json:"graduacao" dynamodbav:"graduacao"`
	Unit       string `json:"unidade" dynamodbav:"unidade"`
	Contact    string `json:"contato" dynamodbav:"contato"`
}

// Label renders the person as "RANK Name (enrollment)".
func (p Person) Label() string {
	var b strings.Builder
	if p.Rank != "" {
		b.WriteString(p.Rank)
		b.WriteByte(' ')
	}
	b.WriteString(p.Name)
	if p.Enrollment != "" {
		b.WriteString(" (")
		b.WriteString(p.Enrollment)
		b.WriteByte(')')
	}
	return b.String()
}

// Material is a single trackable piece of equipment.
type Material struct {
	ID           int64              `json:"id_material" dynamodbav:"id_material"`
	Name         string             `json:"nome" dynamodbav:"nome"`
	SerialNumber string             `json:"numero_serie" dynamodbav:"numero_serie"`
	Conservation ConservationState  `json:"estado_conservacao" dynamodbav:"estado_conservacao"`
	Status       AvailabilityStatus `json:"status" dynamodbav:"status"`
	Catalog      *CatalogEntry      `json:"catalogo,omitempty" dynamodbav:"catalogo,omitempty"`
	CatalogID    *int64             `json:"fk_catalogo,omitempty" dynamodbav:"fk_catalogo,omitempty"`
}

// Label renders the material as "Name - serial".
func (m Material) Label() string {
	if m.SerialNumber == "" {
		return m.Name
	}
	return m.Name + " - " + m.SerialNumber
}

// Validate checks the enum columns.
func (m Material) Validate() error {
	if !m.Conservation.Valid() {
		return errors.Wrapf(cautela.ErrInvalidRecord, "material %d: unknown conservation state %q", m.ID, m.Conservation)
	}
	if !m.Status.Valid() {
		return errors.Wrapf(cautela.ErrInvalidRecord, "material %d: unknown availability status %q", m.ID, m.Status)
	}
	return nil
}

// CatalogEntry is an equipment model. The totals are computed, not stored.
type CatalogEntry struct {
	ID             int64  `json:"id" dynamodbav:"id"`
	Name           string `json:"nome" dynamodbav:"nome"`
	Description    string `json:"descricao,omitempty" dynamodbav:"descricao,omitempty"`
	TotalItems     *int   `json:"total_itens,omitempty" dynamodbav:"total_itens,omitempty"`
	TotalAvailable *int   `json:"total_disponivel,omitempty" dynamodbav:"total_disponivel,omitempty"`
}

// Checkout is a custody record: who took what, when, and its status.
type Checkout struct {
	ID               int64          `json:"id_cautela" dynamodbav:"id_cautela"`
	TakenAt          string         `json:"data_hora_retirada" dynamodbav:"data_hora_retirada"`
	ExpectedReturnAt string         `json:"data_previsao_devolucao" dynamodbav:"data_previsao_devolucao"`
	Status           CheckoutStatus `json:"status" dynamodbav:"status"`
	Reason           string         `json:"motivo_cautela" dynamodbav:"motivo_cautela"`
	DutyOfficer      string         `json:"plantonista_rto" dynamodbav:"plantonista_rto"`
	Responsible      Person         `json:"responsavel" dynamodbav:"responsavel"`
	Items            []Material     `json:"itens" dynamodbav:"itens"`
	ReturnedAt       string         `json:"data_devolucao_real,omitempty" dynamodbav:"data_devolucao_real,omitempty"`
}

// Validate checks the status column and every item.
func (c Checkout) Validate() error {
	if !c.Status.Valid() {
		return errors.Wrapf(cautela.ErrInvalidRecord, "checkout %d: unknown status %q", c.ID, c.Status)
	}
	for _, item := range c.Items {
		if err := item.Validate(); err != nil {
			return errors.Wrapf(err, "checkout %d", c.ID)
		}
	}
	return nil
}

// CheckoutItem links a material to a checkout.
type CheckoutItem struct {
	ID         int64  `json:"id_item_cautela" dynamodbav:"id_item_cautela"`
	CheckoutID int64  `json:"fk_id_cautela" dynamodbav:"fk_id_cautela"`
	MaterialID int64  `json:"fk_id_material" dynamodbav:"fk_id_material"`
	Quantity   int    `json:"quantidade_cautelada" dynamodbav:"quantidade_cautelada"`
	Notes      string `json:"observacoes,omitempty" dynamodbav:"observacoes,omitempty"`
}
