// Package ateliers exposes the static workshop catalog. The list is
// read-only reference data; it is not persisted.
package ateliers

import (
	"github.com/summercamp/backend/internal/models"
)

// Catalog is the full list of workshops open for registration.
var Catalog = []models.Atelier{
	{
		ID:          "web",
		Title:       "Développement Web",
		Description: "Apprenez à créer des sites web modernes avec HTML, CSS, JavaScript et React",
		Icon:        "💻",
		Level:       "Débutant",
		Duration:    "2 semaines",
	},
	{
		ID:          "ai",
		Title:       "Intelligence Artificielle",
		Description: "Découvrez les fondamentaux de l'IA et créez vos premiers modèles",
		Icon:        "🤖",
		Level:       "Intermédiaire",
		Duration:    "2 semaines",
	},
	{
		ID:          "design",
		Title:       "Infographie",
		Description: "Maîtrisez les outils de design graphique et créez des visuels époustouflants",
		Icon:        "🎨",
		Level:       "Débutant",
		Duration:    "2 semaines",
	},
	{
		ID:          "content",
		Title:       "Création de Contenu",
		Description: "Apprenez à créer du contenu engageant pour les réseaux sociaux",
		Icon:        "📝",
		Level:       "Débutant",
		Duration:    "1 semaine",
	},
	{
		ID:          "photo",
		Title:       "Photographie",
		Description: "Perfectionnez vos techniques photo et développez votre œil artistique",
		Icon:        "📸",
		Level:       "Débutant",
		Duration:    "1 semaine",
	},
	{
		ID:          "video",
		Title:       "Montage Vidéo",
		Description: "Créez des vidéos professionnelles avec les derniers outils de montage",
		Icon:        "🎬",
		Level:       "Intermédiaire",
		Duration:    "2 semaines",
	},
	{
		ID:          "entrepreneur",
		Title:       "Entrepreneuriat",
		Description: "Développez votre esprit d'entreprise et lancez votre startup",
		Icon:        "💼",
		Level:       "Intermédiaire",
		Duration:    "2 semaines",
	},
	{
		ID:          "entrepreneur-en",
		Title:       "Entrepreneuriat (Anglais)",
		Description: "Develop your business mindset and launch your startup in English",
		Icon:        "🌍",
		Level:       "Intermédiaire",
		Duration:    "2 semaines",
	},
}

// ByID returns the catalog entry for id.
func ByID(id string) (models.Atelier, bool) {
	for _, a := range Catalog {
		if a.ID == id {
			return a, true
		}
	}
	return models.Atelier{}, false
}

// TitlesFor maps atelier ids to display titles, preserving order. Unknown ids
// are skipped.
func TitlesFor(ids []string) []string {
	titles := make([]string, 0, len(ids))
	for _, id := range ids {
		if a, ok := ByID(id); ok {
			titles = append(titles, a.Title)
		}
	}
	return titles
}
