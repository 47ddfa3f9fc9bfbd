package keywords

// Default returns the built-in French sales-call tables.
func Default() *Tables {
	return &Tables{
		categories: map[Category][]string{
			CategoryPain:      {"problème", "difficulté", "galère", "compliqué", "frustrant", "perd", "manque"},
			CategoryObjection: {"cher", "trop", "déjà", "pas besoin", "pas sûr", "réfléchir", "voir"},
			CategoryBuySignal: {"intéressant", "comment", "quand", "combien", "essayer", "tester", "démo"},
			CategoryDecision:  {"décide", "budget", "validation", "équipe", "décision", "timing"},
			CategoryImpact:    {"€", "euros", "heures", "jours", "coûte", "économie", "gagner"},
		},
		noise: []string{
			"bonjour", "merci", "d'accord", "ok", "oui", "non", "hum", "euh",
			"voilà", "donc", "alors", "bon", "bien",
		},
		pillars: map[int][]string{
			1: {"utilisez", "processus", "actuellement", "comment"},
			2: {"problème", "difficulté", "perd", "manque"},
			3: {"combien", "coûte", "impact", "€", "heures"},
			4: {"décide", "budget", "timing", "validation"},
			5: {"démo", "essai", "tester", "suite", "rendez-vous"},
		},
		painTriggers: []string{
			"problème", "difficulté", "challenge", "galère", "compliqué",
			"perte de temps", "inefficace", "frustrant", "manque", "besoin",
			"vous avez dit", "vous mentionnez", "vous rencontrez", "vous faites face",
			"votre problème", "votre difficulté", "vous souffrez",
		},
		phases: map[string][]string{
			"introduction": {"bonjour", "présente", "appelle", "enchanté", "contact", "merci de prendre"},
			"discovery": {
				"besoin", "problème", "actuellement", "comment", "pourquoi", "qu'est-ce que",
				"aujourd'hui", "équipe", "process", "difficultés",
			},
			"presentation": {
				"solution", "fonctionne", "permet", "fonctionnalité", "propose",
				"temps réel", "coaching", "analyse",
			},
			"negotiation": {"prix", "coût", "budget", "combien", "tarif", "investissement", "roi", "offre", "package"},
			"closing": {
				"démo", "essai", "rendez-vous", "prochaine étape", "next step", "calendrier",
				"disponible", "quand", "envoyer", "contrat",
			},
		},
		concepts: []Concept{
			{"pricing", []string{"prix", "cher", "coût", "budget", "roi", "tarif", "investissement", "€", "eur", "retour sur investissement"}},
			{"objection", []string{"objection", "frein", "hésitation", "doute", "réticent", "sceptique", "inquiet", "préoccupé"}},
			{"closing", []string{"closing", "signature", "contrat", "deal", "achat", "conclure", "signer"}},
			{"discovery", []string{"discovery", "découverte", "question", "besoin", "comprendre", "explorer"}},
			{"pain_point", []string{"pain point", "problème", "douleur", "difficulté", "challenge", "souffre"}},
			{"timing", []string{"timing", "moment", "urgence", "délai", "maintenant", "quand", "rapidement"}},
			{"decision", []string{"décision", "décideur", "validation", "approuver", "choisir"}},
			{"competitor", []string{"concurrent", "compétiteur", "alternative", "gong", "chorus", "salesloft"}},
			{"technical", []string{"technique", "intégration", "api", "crm", "salesforce", "hubspot", "setup", "webhook", "zapier"}},
			{"adoption", []string{"adoption", "changement", "résistance", "équipe", "onboarding", "formation"}},
			{"interest", []string{"intérêt", "intéressant", "curieux", "engagement", "attentif", "écoute"}},
			{"budget", []string{"budget", "financement", "allocation", "enveloppe", "ressources"}},
			{"team", []string{"équipe", "commerciaux", "vendeurs", "sales", "collaborateurs"}},
			{"demo", []string{"démo", "démonstration", "présentation", "montrer", "voir"}},
			{"timeline", []string{"timeline", "planning", "échéance", "roadmap", "calendrier"}},
			{"value", []string{"valeur", "bénéfice", "avantage", "gain", "impact"}},
			{"trust", []string{"confiance", "crédibilité", "preuve", "référence", "témoignage"}},
			{"qualification", []string{"qualification", "fit", "profil", "cible", "adapté"}},
			{"next_steps", []string{"prochaine étape", "next step", "suite", "après", "ensuite"}},
			{"engagement", []string{"engagement", "implication", "participation", "actif"}},
			{"tone", []string{"ton", "attitude", "comportement", "défensif", "agressif", "chaleureux"}},
			{"roi", []string{"roi", "retour", "rentabilité", "bénéfice financier", "rentable"}},
			{"scalability", []string{"scalabilité", "croissance", "scale", "expansion", "grandir"}},
			{"support", []string{"support", "accompagnement", "aide", "assistance", "service client", "sav"}},
			{"security", []string{"sécurité", "rgpd", "compliance", "confidentialité", "protection", "données"}},
			{"performance", []string{"performance", "rapidité", "efficacité", "productivité", "vitesse"}},
			{"reporting", []string{"reporting", "rapport", "analytique", "dashboard", "métriques", "kpi"}},
		},
		alertWords:       []string{"risque", "attention", "objection", "bloque", "hésite", "méfiance", "frein"},
		opportunityWords: []string{"opportunité", "intérêt", "levier", "upsell", "signal d'achat", "curieux"},
		unwanted: []string{
			"sous-titres réalisés par",
			"sous-titrage",
			"amara.org",
			"merci d'avoir regardé",
		},
		hallucinationWords: []string{
			"youtube", "chaîne", "chaine", "vidéo", "video",
			"abonné", "abonnez", "like", "pouce bleu",
			"commentaire", "partage", "partagez",
			"épisode", "episode", "tutoriel", "tuto",
			"diffusion", "streaming", "live",
			"regarder", "visionner", "visionnage",
		},
		hallucinationPhrases: []string{
			"chaîne youtube",
			"cette vidéo",
			"dans cette vidéo",
			"vidéo de l'équipe",
			"tour de la chaîne",
			"abonnez-vous",
			"mettez un like",
			"lâchez un pouce bleu",
		},
	}
}
