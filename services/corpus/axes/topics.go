// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package axes

import "github.com/AleutianAI/casecorpus/services/corpus/schema"

// Topic binds a legal theme to its prompt material and its footprint in
// the extraction schema.
type Topic struct {
	// Label is the French display name used in prompts and guides.
	Label string
	// Keywords drive seed-example matching against normalized seed text.
	Keywords []string
	// Elements are the business constraints injected into must_include.
	Elements []string
	// Prefixes are the schema subtrees the generator samples for this topic.
	Prefixes []schema.Path
	// RequiredLeaves must all exist in a generated target for the topic to
	// count as present. When empty, any populated prefix counts.
	RequiredLeaves []schema.Path
}

// Topics maps topic bucket name to its definition.
var Topics = map[string]Topic{
	"ordre_heritiers": {
		Label:    "ordre des héritiers / dévolution",
		Keywords: []string{"enfant", "célibataire", "frère", "marié", "représentation"},
		Elements: []string{
			"préciser les liens de parenté utiles",
			"indiquer s'il existe ou non un testament",
		},
		Prefixes: []schema.Path{
			{"famille", "descendants"},
			{"famille", "ascendants"},
			{"famille", "collateraux"},
		},
		RequiredLeaves: []schema.Path{
			{"famille", "descendants", "enfants", "*", "nom"},
		},
	},
	"famille_recomposee": {
		Label:    "famille recomposée / enfants non communs",
		Keywords: []string{"recompos", "premier lit", "enfant non commun", "beau", "adoption simple"},
		Elements: []string{
			"inclure au moins un enfant d'une autre union",
			"laisser un point de friction entre branches familiales",
		},
		Prefixes: []schema.Path{
			{"famille", "descendants"},
			{"famille", "partenaire"},
			{"famille", "collateraux"},
		},
		RequiredLeaves: []schema.Path{
			{"famille", "descendants", "enfants", "*", "nom"},
			{"famille", "descendants", "enfants", "*", "est_d_une_precedente_union"},
		},
	},
	"regimes_matrimoniaux": {
		Label:    "régime matrimonial / liquidation préalable",
		Keywords: []string{"communauté", "séparation de biens", "participation", "récompense"},
		Elements: []string{
			"mentionner le régime matrimonial ou son absence de contrat",
			"faire apparaître un enjeu de propriété entre époux",
		},
		Prefixes: []schema.Path{
			{"famille", "defunt", "regime_matrimonial"},
			{"famille", "partenaire"},
			{"patrimoine", "actifs"},
			{"patrimoine", "recompenses"},
		},
		RequiredLeaves: []schema.Path{
			{"famille", "defunt", "regime_matrimonial", "type"},
			{"patrimoine", "actifs", "*", "type"},
			{"patrimoine", "actifs", "*", "propriete", "nature"},
		},
	},
	"donations_reduction": {
		Label:    "donation / rapport / réduction",
		Keywords: []string{"donation", "hors part", "réduction", "rapport", "donation-partage"},
		Elements: []string{
			"inclure une libéralité antérieure",
			"laisser planer un doute sur son traitement civil",
		},
		Prefixes: []schema.Path{
			{"liberalites", "donations"},
			{"liberalites", "testament"},
			{"liberalites", "legs"},
			{"liberalites", "renonciations_action_reduction"},
			{"liberalites", "raar"},
		},
		RequiredLeaves: []schema.Path{
			{"liberalites", "donations", "*", "donateur_nom"},
			{"liberalites", "donations", "*", "beneficiaire_nom"},
			{"liberalites", "donations", "*", "type"},
		},
	},
	"assurance_vie": {
		Label:    "assurance-vie / bénéficiaires / primes",
		Keywords: []string{"assurance vie", "AV", "bénéficiaire", "primes exag"},
		Elements: []string{
			"mentionner un contrat d'assurance-vie ou un bénéficiaire",
			"glisser un doute sur la place du contrat dans le calcul global",
		},
		Prefixes: []schema.Path{
			{"assurance_vie", "contrats"},
			{"contexte", "procedure", "contestation_clause_beneficiaire_assurance_vie"},
		},
		RequiredLeaves: []schema.Path{
			{"assurance_vie", "contrats", "*", "libelle"},
			{"assurance_vie", "contrats", "*", "assure_nom"},
		},
	},
	"indivision_partage": {
		Label:    "indivision / partage bloqué / licitation",
		Keywords: []string{"indivision", "vendre", "licitation", "occupation"},
		Elements: []string{
			"faire apparaître au moins deux héritiers en désaccord",
			"inclure un bien difficile à partager",
		},
		Prefixes: []schema.Path{
			{"indivision", "gestion"},
			{"indivision", "comptes"},
			{"indivision", "creances"},
			{"operations_de_partage", "licitation"},
			{"operations_de_partage", "attributions_preferentielles"},
			{"operations_de_partage", "soultes_mentionnees"},
		},
		RequiredLeaves: []schema.Path{
			{"contexte", "procedure", "refus_de_vendre_ou_de_partager", "existe"},
			{"operations_de_partage", "licitation", "est_prevue"},
		},
	},
	"entreprise_dutreil": {
		Label:    "entreprise / titres / Dutreil",
		Keywords: []string{"société", "parts", "Dutreil", "SARL", "SCI", "fonds"},
		Elements: []string{
			"inclure des titres, une société ou un outil professionnel",
			"laisser un enjeu de valorisation ou de reprise",
		},
		Prefixes: []schema.Path{
			{"patrimoine", "actifs"},
			{"liberalites", "donations"},
			{"operations_de_partage", "attributions_preferentielles"},
		},
		RequiredLeaves: []schema.Path{
			{"patrimoine", "actifs", "*", "type"},
			{"patrimoine", "actifs", "*", "entreprise", "type"},
			{"patrimoine", "actifs", "*", "entreprise", "est_presente_comme_eligible_dutreil"},
		},
	},
	"demembrement_usufruit": {
		Label:    "démembrement / usufruit / nue-propriété",
		Keywords: []string{"usufruit", "nue-propriété", "quasi-usufruit", "démembrement"},
		Elements: []string{
			"inclure un usufruit existant ou à choisir",
			"faire apparaître un effet différé ou une créance future",
		},
		Prefixes: []schema.Path{
			{"patrimoine", "actifs"},
			{"operations_de_partage", "conversion_usufruit"},
		},
		RequiredLeaves: []schema.Path{
			{"patrimoine", "actifs", "*", "demembrement", "droits_du_defunt"},
		},
	},
	"testament_legs": {
		Label:    "testament / legs / clause contestée",
		Keywords: []string{"testament", "legs", "olographe", "légataire"},
		Elements: []string{
			"inclure une disposition testamentaire ou un legs",
			"laisser un doute sur la portée ou la validité de la clause",
		},
		Prefixes: []schema.Path{
			{"liberalites", "testament"},
			{"liberalites", "legs"},
			{"contexte", "procedure", "contestation_testament"},
		},
		RequiredLeaves: []schema.Path{
			{"liberalites", "testament", "existe"},
			{"liberalites", "legs", "*", "beneficiaire_nom"},
			{"liberalites", "legs", "*", "type"},
		},
	},
	"dettes_passif": {
		Label:    "dettes / passif / déficit",
		Keywords: []string{"dette", "impôts", "URSSAF", "passif", "déficit"},
		Elements: []string{
			"inclure un passif significatif",
			"faire sentir une tension sur le règlement des dettes",
		},
		Prefixes: []schema.Path{
			{"patrimoine", "passifs"},
			{"operations_de_partage", "creances_entre_copartageants"},
		},
		RequiredLeaves: []schema.Path{
			{"patrimoine", "passifs", "*", "type"},
			{"patrimoine", "passifs", "*", "valeur"},
		},
	},
	"pacs_concubinage": {
		Label:    "PACS / concubinage",
		Keywords: []string{"PACS", "concubin", "union libre", "partenaire"},
		Elements: []string{
			"inclure une relation non matrimoniale",
			"faire apparaître un doute sur la protection du survivant",
		},
		Prefixes: []schema.Path{
			{"famille", "partenaire"},
			{"famille", "droits_du_partenaire"},
		},
		RequiredLeaves: []schema.Path{
			{"famille", "partenaire", "nom"},
			{"famille", "partenaire", "lien", "type"},
		},
	},
	"international_procedure": {
		Label:    "international / procédure / blocage",
		Keywords: []string{"étranger", "Belgique", "Espagne", "procédure", "mandat", "juge"},
		Elements: []string{
			"inclure un élément procédural ou international",
			"laisser au moins un point de compétence ou de formalité flou",
		},
		Prefixes: []schema.Path{
			{"contexte", "international"},
			{"contexte", "procedure"},
			{"famille", "defunt"},
			{"famille", "partenaire"},
		},
		RequiredLeaves: []schema.Path{
			{"contexte", "international", "professio_juris", "existe"},
			{"contexte", "procedure", "divorce_ou_separation_en_cours", "existe"},
		},
	},
}

// SparseCoveragePrefixes are rarely-touched schema corners that the
// generator occasionally samples so the corpus does not starve them.
var SparseCoveragePrefixes = []schema.Path{
	{"famille", "adoption_simple_du_defunt"},
	{"liberalites", "donation_entre_epoux"},
	{"patrimoine", "ameliorations_bien_propre"},
}
