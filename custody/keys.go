package custody

import "github.com/letmevibethatforyou/cautela"

// SearchFields returns the field paths searched by default for kind.
func SearchFields(kind Kind) []string {
	switch kind {
	case KindPerson:
		return []string{"nome", "matricula", "graduacao", "cpf"}
	case KindMaterial:
		return []string{"nome", "numero_serie", "catalogo.nome"}
	case KindCatalog:
		return []string{"nome", "descricao"}
	case KindCheckout:
		return []string{"responsavel.nome", "responsavel.matricula", "motivo_cautela", "plantonista_rto", "itens.nome"}
	default:
		return nil
	}
}

// PersonKeys returns the default search keys for people.
func PersonKeys() []cautela.Key[Person] {
	return cautela.Fields[Person](SearchFields(KindPerson)...)
}

// MaterialKeys returns the default search keys for materials.
func MaterialKeys() []cautela.Key[Material] {
	return cautela.Fields[Material](SearchFields(KindMaterial)...)
}

// CatalogKeys returns the default search keys for catalog entries.
func CatalogKeys() []cautela.Key[CatalogEntry] {
	return cautela.Fields[CatalogEntry](SearchFields(KindCatalog)...)
}

// ObjectKeys returns the default search keys of kind for untyped records.
func ObjectKeys(kind Kind) []cautela.Key[map[string]any] {
	return cautela.Fields[map[string]any](SearchFields(kind)...)
}
