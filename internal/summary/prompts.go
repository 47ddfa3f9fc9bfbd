package summary

const clientPrompt = `Tu es un analyste commercial expert qui évalue des appels de vente de manière objective et factuelle.

TRANSCRIPTION DE L'ÉCHANGE :
"""%s"""

MISSION :
1) UNE PHRASE UNIQUE factuelle résumant l'échange du point de vue du client.
2) UN RÉSUMÉ DÉTAILLÉ (5-7 lignes) centré sur le CLIENT : besoins exprimés, objections, attentes, niveau d'intérêt, contraintes, informations clés partagées.

FORMAT DE RÉPONSE (JSON strict, sans markdown) :
{
  "summary": {"main": "...", "details": "..."},
  "next_actions": {
    "priority": "high" | "medium" | "low",
    "actions": [{"action": "...", "deadline": "...", "reason": "..."}],
    "follow_up": "..."
  },
  "key_points": {
    "strengths": ["..."],
    "weaknesses": ["..."],
    "improvements": ["..."],
    "score": {"value": 15, "comment": "Justification de la note sur 20"}
  }
}

Réponds uniquement avec le JSON.`

const salespersonPrompt = `Tu es un coach commercial expert. Analyse le dialogue suivant et évalue UNIQUEMENT la performance du commercial.

TRANSCRIPTION DE L'ÉCHANGE :
"""%s"""

TÂCHES :
1. Résumé global de l'appel en 2-3 phrases.
2. Points forts (strengths) et points faibles (weaknesses) du commercial.
3. Notes sur 10 : politeness, listening, persuasion, clarity, objection_handling.
4. Note globale "overall" sur 10.

FORMAT DE RÉPONSE (JSON strict, sans markdown) :
{
  "summary": "...",
  "strengths": ["..."],
  "weaknesses": ["..."],
  "ratings": {"politeness": 0, "listening": 0, "persuasion": 0, "clarity": 0, "objection_handling": 0, "overall": 0}
}

Réponds UNIQUEMENT avec le JSON.`
