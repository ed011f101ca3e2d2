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

// French label tables. The short label goes into prompt lines, the detail
// sentence into the per-axis dimension guide.

var PersonaLabels = map[string]string{
	"enfant":           "un enfant du défunt",
	"conjoint":         "le conjoint survivant",
	"beau_enfant":      "un beau-fils ou une belle-fille",
	"fratrie":          "un frère ou une sœur",
	"notaire":          "un notaire ou un clerc",
	"avocat":           "un avocat en contentieux",
	"partenaire_pacs":  "le partenaire de PACS",
	"concubin":         "le concubin ou la concubine",
	"associe":          "un associé ou coindivisaire",
	"petit_enfant":     "un petit-enfant",
	"tiers":            "un voisin, aidant ou proche extérieur",
	"narrateur_neutre": "un narrateur externe neutre",
}

var VoiceLabels = map[string]string{
	"premiere_personne":  "à la première personne",
	"troisieme_personne": "à la troisième personne",
	"note_dossier":       "en note de dossier",
	"parole_rapportee":   "en parole rapportée",
}

var FormatLabels = map[string]string{
	"question_directe":     "question directe courte",
	"mail_brouillon":       "mail brouillon ou message client",
	"recit_libre":          "récit libre",
	"note_professionnelle": "synthèse professionnelle",
	"oral_retranscrit":     "oral retranscrit avec ponctuation irrégulière",
	"message_conflictuel":  "message conflictuel ou familial tendu",
}

var LengthLabels = map[string]string{
	"court":     "court (1 à 3 phrases)",
	"moyen":     "moyen (un paragraphe net)",
	"long":      "long (paragraphe dense ou deux blocs)",
	"tres_long": "très long (cas détaillé quasi dossier)",
}

var NoiseLabels = map[string]string{
	"propre":                 "français propre, quasiment sans bruit",
	"legeres_fautes":         "1 ou 2 fautes crédibles",
	"fautes_et_abreviations": "fautes légères + abréviations réalistes",
	"ambigu":                 "formulation floue avec zones d'ombre",
	"tres_brouillon":         "message très brouillon mais compréhensible",
}

var NumericLabels = map[string]string{
	"sans_montant":       "aucun montant obligatoire",
	"un_montant":         "au moins un montant ou une valeur approximative",
	"plusieurs_montants": "plusieurs montants ou valorisations",
	"montants_et_dates":  "montants + au moins une date utile",
}

var DatePrecisionLabels = map[string]string{
	"aucune": "aucune date imposée",
	"approx": "repères temporels approximatifs",
	"exacte": "au moins une date exacte",
}

var ComplexityLabels = map[string]string{
	"simple":        "cas simple",
	"intermediaire": "cas intermédiaire",
	"complexe":      "cas complexe",
	"hard_negative": "hard negative volontaire",
}

var HardNegativeLabels = map[string]string{
	"pas_de_deces_clair":          "faux ami sans décès clairement exploitable",
	"infos_incompletes":           "dossier incomplet avec infos majeures manquantes",
	"faits_contradictoires":       "faits contradictoires ou incohérents",
	"hors_perimetre_mal_qualifie": "hors périmètre ou mal qualifié mais proche de la succession",
}

var HardNegativeIntensityLabels = map[string]string{
	"soft": "hard negative léger, très proche d'un vrai cas",
	"hard": "hard negative dur, plus piégeux et plus bruité",
}

// Purposes explains what each axis controls, for the dimension guide.
var Purposes = map[string]string{
	Persona: "Définit qui parle ou depuis quel point de vue social / familial / professionnel " +
		"le cas est raconté. Cela change le biais du narrateur, son niveau d'information " +
		"et le vocabulaire attendu.",
	Voice: "Définit la posture narrative et la grammaire du récit. Cela change la distance " +
		"émotionnelle, la clarté et la manière d'exposer les faits.",
	Format: "Définit la forme matérielle du texte. Cela évite que tous les cas ressemblent " +
		"à des énoncés scolaires homogènes.",
	LengthBand: "Définit la profondeur factuelle attendue. Cela contrôle la quantité de détails " +
		"et la densité d'information à inclure.",
	Noise: "Définit le niveau de bruit linguistique. Cela simule des entrées plus ou moins " +
		"propres, plus ou moins réalistes côté utilisateur.",
	NumericDensity: "Définit la quantité de chiffres, montants, proportions ou valorisations à faire " +
		"apparaître dans le cas.",
	DatePrecision: "Définit le niveau de précision temporelle attendu, afin de varier entre absence " +
		"de date, repères flous et dates réellement exploitables.",
	Complexity: "Définit la difficulté globale du dossier. Cela contrôle le nombre de couches " +
		"juridiques, de tensions factuelles et la part de cas piégeux.",
	PrimaryTopic: "Définit le coeur juridique du cas. C'est la matière principale qui doit structurer " +
		"l'énoncé.",
	SecondaryTopic: "Ajoute une seconde couche facultative au dossier pour éviter les cas trop plats. " +
		"Le sujet secondaire complique ou enrichit le sujet principal.",
	HardNegativeMode: "Définit la nature du piège lorsque le cas est volontairement un hard negative. " +
		"Ce champ reste inactif si la complexité n'est pas hard negative.",
	HardNegativeIntensity: "Dose la violence du piège sur les hard negatives. Ce champ reste inactif si la " +
		"complexité n'est pas hard negative.",
}

var PersonaDetails = map[string]string{
	"enfant":           "Le narrateur connaît souvent bien les faits, mais il peut être émotionnel ou partiel.",
	"conjoint":         "Le narrateur met souvent en avant sa protection, ses droits et le patrimoine de couple.",
	"beau_enfant":      "Le narrateur est souvent dans un angle conflictuel ou comparatif avec les autres branches.",
	"fratrie":          "Le narrateur parle souvent de collatéraux, de tensions familiales et d'égalité entre proches.",
	"notaire":          "Le ton attendu est plus sec, structuré et factuel, avec un prisme de dossier.",
	"avocat":           "Le ton attendu met davantage l'accent sur le litige, la contestation et les points sensibles.",
	"partenaire_pacs":  "Le narrateur met souvent l'accent sur la protection insuffisante ou incertaine du survivant.",
	"concubin":         "Le narrateur est souvent dans une situation fragile, mal protégée ou mal comprise.",
	"associe":          "Le narrateur met souvent en avant la copropriété, la gestion ou la valeur d'un actif partagé.",
	"petit_enfant":     "Le narrateur fait souvent apparaître la représentation, une branche familiale ou un décalage générationnel.",
	"tiers":            "Le narrateur est utile pour introduire de l'imprécision ou une compréhension partielle des faits.",
	"narrateur_neutre": "Le narrateur expose les faits sans implication personnelle directe, de façon plus neutre.",
}

var VoiceDetails = map[string]string{
	"premiere_personne":  "Le texte doit ressembler à une personne qui expose sa propre situation.",
	"troisieme_personne": "Le texte doit ressembler à une présentation extérieure d'un dossier ou d'un cas d'espèce.",
	"note_dossier":       "Le texte doit ressembler à une note interne ou une fiche de dossier.",
	"parole_rapportee":   "Le texte doit donner l'impression que les faits sont rapportés, transmis ou reformulés.",
}

var FormatDetails = map[string]string{
	"question_directe":     "Le cas doit se terminer comme une vraie demande adressée à un professionnel.",
	"mail_brouillon":       "Le cas doit ressembler à un message envoyé vite, imparfait mais exploitable.",
	"recit_libre":          "Le cas doit dérouler les faits sans plan apparent ni structure scolaire.",
	"note_professionnelle": "Le cas doit avoir une forme sèche, quasi cabinet, quasi-notaire.",
	"oral_retranscrit":     "Le cas doit garder une cadence parlée, avec une ponctuation un peu irrégulière.",
	"message_conflictuel":  "Le cas doit laisser sentir une tension explicite ou un désaccord familial.",
}

var LengthDetails = map[string]string{
	"court":     "Le cas doit rester bref mais contenir l'essentiel sans tomber dans le télégraphique.",
	"moyen":     "Le cas doit tenir dans un bloc lisible avec un bon niveau de matière.",
	"long":      "Le cas doit être nettement développé avec plusieurs informations utiles.",
	"tres_long": "Le cas doit ressembler à un mini-dossier riche, sans basculer dans l'analyse.",
}

var NoiseDetails = map[string]string{
	"propre":                 "Le texte peut être très propre, avec peu ou pas de défaut volontaire.",
	"legeres_fautes":         "Le texte peut contenir 1 ou 2 fautes crédibles, pas davantage.",
	"fautes_et_abreviations": "Le texte doit garder une bonne lisibilité tout en injectant des abréviations réalistes.",
	"ambigu":                 "Le texte doit comporter au moins une zone d'ombre, un point mal posé ou discutable.",
	"tres_brouillon":         "Le texte peut être haché, hésitant ou mal ponctué, mais il doit rester compréhensible.",
}

var NumericDetails = map[string]string{
	"sans_montant":       "Les chiffres ne sont pas obligatoires si le cas reste crédible sans eux.",
	"un_montant":         "Il faut au moins une valeur ou un ordre de grandeur exploitable.",
	"plusieurs_montants": "Il faut plusieurs chiffres utiles pour enrichir le dossier.",
	"montants_et_dates":  "Il faut au moins un montant et une date utile, de préférence bien exploitable.",
}

var DatePrecisionDetails = map[string]string{
	"aucune": "Aucune date n'est imposée si cela ne sert pas le cas.",
	"approx": "Les repères temporels peuvent rester flous, relatifs ou approximatifs.",
	"exacte": "Au moins une date doit être réellement exploitable (jour/mois/année ou ISO).",
}

var ComplexityDetails = map[string]string{
	"simple":        "Le cas doit rester lisible, direct et peu imbriqué.",
	"intermediaire": "Le cas doit comporter quelques couches factuelles mais rester assez standard.",
	"complexe":      "Le cas doit cumuler plusieurs éléments ou tensions sans devenir confus.",
	"hard_negative": "Le cas doit volontairement piéger un extracteur ou un lecteur trop confiant.",
}

var HardNegativeModeDetails = map[string]string{
	"pas_de_deces_clair":          "Le texte doit ressembler à une succession sans poser clairement un décès exploitable.",
	"infos_incompletes":           "Une donnée pivot doit manquer, empêchant une lecture trop simple du cas.",
	"faits_contradictoires":       "Une contradiction réaliste doit être présente sans être explicitement résolue.",
	"hors_perimetre_mal_qualifie": "Le texte doit sembler successoral alors qu'une partie du problème relève d'autre chose.",
}

var HardNegativeIntensityDetails = map[string]string{
	"soft": "Un seul défaut majeur suffit, le cas doit rester très crédible au premier regard.",
	"hard": "Le cas doit cumuler plusieurs confusions tout en restant plausible.",
}

// CommonMustAvoid is the constraint list shared by every prompt.
var CommonMustAvoid = []string{
	"Ne pas donner la solution ni conclure sur les droits exacts.",
	"Ne pas fournir d'analyse juridique, de calcul ou de raisonnement explicatif.",
	"Ne pas répondre en liste de points juridiques ou en checklist.",
	"Ne pas recopier mot pour mot les exemples de référence.",
	"Ne pas remplacer la paire demandée par un texte libre, une checklist ou un pseudo-format.",
}

// HardNegativeMustAvoid is appended when the drawn complexity is a hard
// negative.
const HardNegativeMustAvoid = "Ne pas signaler explicitement qu'il s'agit d'un hard negative ou d'un piège."

// Per-bucket constraint lines injected into must_include.

var FormatRequirements = map[string][]string{
	"question_directe":     {"terminer comme une vraie question ou une demande de conseil"},
	"mail_brouillon":       {"faire sentir un message envoyé vite, sans mise en forme parfaite"},
	"recit_libre":          {"laisser le narrateur dérouler les faits sans structure trop scolaire"},
	"note_professionnelle": {"style sec, quasi-notarial ou cabinet"},
	"oral_retranscrit":     {"ponctuation un peu irrégulière, rythme oral"},
	"message_conflictuel":  {"faire sentir un conflit ou une tension explicite"},
}

var LengthRequirements = map[string][]string{
	"court":     {"viser un cas bref et dense, sans devenir télégraphique"},
	"moyen":     {"viser un niveau de détail intermédiaire, lisible d'un seul bloc"},
	"long":      {"ajouter assez de matière factuelle pour un cas nettement développé"},
	"tres_long": {"viser un cas riche, détaillé et multi-couches, sans donner la solution"},
}

var NoiseRequirements = map[string][]string{
	"propre":                 {"pas d'erreur volontaire obligatoire"},
	"legeres_fautes":         {"ajouter 1 ou 2 fautes réalistes maximum"},
	"fautes_et_abreviations": {"ajouter quelques abréviations réalistes (AV, RP, M., Mme, etc.)"},
	"ambigu":                 {"laisser au moins un détail flou, approximatif ou contesté"},
	"tres_brouillon":         {"laisser des morceaux incomplets, hésitants ou mal ponctués"},
}

var NumericRequirements = map[string][]string{
	"sans_montant":       {"aucun chiffre n'est obligatoire"},
	"un_montant":         {"inclure au moins un montant ou une valeur"},
	"plusieurs_montants": {"inclure plusieurs montants, valeurs ou proportions"},
	"montants_et_dates":  {"inclure au moins un montant et une date utile, de préférence exacte"},
}

var DatePrecisionRequirements = map[string][]string{
	"aucune": {"aucune date n'est obligatoire si elle n'apporte rien"},
	"approx": {"utiliser un repère temporel flou ou approximatif si une date apparaît"},
	"exacte": {"inclure au moins une date exacte (jour/mois/année ou format ISO)"},
}

var HardNegativeRequirements = map[string][]string{
	"pas_de_deces_clair": {
		"le texte doit ressembler à une succession mais sans décès exploitable clairement posé",
	},
	"infos_incompletes": {
		"laisser manquer une donnée-clé (date, lien, testament, régime, composition des héritiers)",
	},
	"faits_contradictoires": {
		"introduire une contradiction factuelle réaliste sans la résoudre",
	},
	"hors_perimetre_mal_qualifie": {
		"faire croire à une succession alors qu'une partie du problème relève d'autre chose",
	},
}

var HardNegativeIntensityRequirements = map[string][]string{
	"soft": {"ne mettre qu'un défaut principal, le cas doit rester très crédible au premier regard"},
	"hard": {"cumuler au moins deux sources de confusion sans rendre le texte absurde"},
}
