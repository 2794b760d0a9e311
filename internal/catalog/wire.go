package catalog

import "strings"

// Raw catalog records. Every field is optional on the wire; conversion to
// Card and Set happens once, here, so the rest of the code never deals with
// absent fields.

type rawAttack struct {
	Name   string   `json:"name"`
	Text   string   `json:"text"`
	Cost   []string `json:"cost"`
	Damage string   `json:"damage"`
}

type rawAbility struct {
	Name string `json:"name"`
	Text string `json:"text"`
	Type string `json:"type"`
}

type rawSet struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Series      string `json:"series"`
	PtcgoCode   string `json:"ptcgoCode"`
	ReleaseDate string `json:"releaseDate"`
	Total       int    `json:"total"`
}

type rawCard struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Supertype      string            `json:"supertype"`
	Subtypes       []string          `json:"subtypes"`
	Types          []string          `json:"types"`
	HP             string            `json:"hp"`
	EvolvesFrom    string            `json:"evolvesFrom"`
	EvolvesTo      []string          `json:"evolvesTo"`
	Rules          []string          `json:"rules"`
	Abilities      []rawAbility      `json:"abilities"`
	Attacks        []rawAttack       `json:"attacks"`
	Set            *rawSet           `json:"set"`
	Number         string            `json:"number"`
	Rarity         string            `json:"rarity"`
	RegulationMark string            `json:"regulationMark"`
	Legalities     map[string]string `json:"legalities"`
	Images         *struct {
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"images"`
}

type listEnvelope[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Count      int `json:"count"`
	TotalCount int `json:"totalCount"`
}

type itemEnvelope[T any] struct {
	Data *T `json:"data"`
}

func (r rawSet) toSet() Set {
	return Set{
		ID:          strings.TrimSpace(r.ID),
		Name:        r.Name,
		Series:      r.Series,
		Code:        strings.TrimSpace(r.PtcgoCode),
		ReleaseDate: r.ReleaseDate,
		Total:       r.Total,
	}
}

func (r rawCard) toCard() Card {
	c := Card{
		ID:             strings.TrimSpace(r.ID),
		Name:           strings.TrimSpace(r.Name),
		Supertype:      ParseSupertype(r.Supertype),
		Subtypes:       r.Subtypes,
		Types:          r.Types,
		HP:             r.HP,
		EvolvesFrom:    r.EvolvesFrom,
		EvolvesTo:      r.EvolvesTo,
		Rules:          r.Rules,
		Number:         strings.TrimSpace(r.Number),
		Rarity:         r.Rarity,
		RegulationMark: r.RegulationMark,
		Legalities:     r.Legalities,
	}
	for _, a := range r.Attacks {
		c.Attacks = append(c.Attacks, Attack(a))
	}
	for _, a := range r.Abilities {
		c.Abilities = append(c.Abilities, Ability(a))
	}
	if r.Set != nil {
		s := r.Set.toSet()
		c.Set = SetRef{ID: s.ID, Name: s.Name, Series: s.Series, Code: s.Code}
	}
	if r.Images != nil {
		c.Images = Images{Small: r.Images.Small, Large: r.Images.Large}
	}
	return c
}

// toCards converts raw records, dropping those without an id.
func toCards(raw []rawCard) []Card {
	cards := make([]Card, 0, len(raw))
	for _, r := range raw {
		c := r.toCard()
		if c.ID == "" {
			continue
		}
		cards = append(cards, c)
	}
	return cards
}
