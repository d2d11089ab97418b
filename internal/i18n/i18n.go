package i18n

import "strings"

var translations = map[string]map[string]string{
	"en": {
		"users":          "Users",
		"username":       "Username",
		"email":          "Email",
		"full_name":      "Full name",
		"bio":            "Bio",
		"picture":        "Picture",
		"role":           "Role",
		"enabled":        "Enabled",
		"created_at":     "Created",
		"updated_at":     "Updated",
		"create_user":    "Create user",
		"update_user":    "Update user",
		"delete":         "Delete",
		"save":           "Save",
		"view":           "View",
		"edit":           "Edit",
		"not_found":      "No such user",
		"required":       "Required",
		"too_long":       "Too long",
		"invalid_email":  "Email must be valid",
		"email_taken":    "A user with this email already exists",
		"username_taken": "This username is already taken",
	},
	"fr": {
		"users":          "Utilisateurs",
		"username":       "Nom d'utilisateur",
		"email":          "Email",
		"full_name":      "Nom complet",
		"bio":            "Bio",
		"picture":        "Image",
		"role":           "Rôle",
		"enabled":        "Actif",
		"created_at":     "Créé le",
		"updated_at":     "Modifié le",
		"create_user":    "Créer un utilisateur",
		"update_user":    "Modifier l'utilisateur",
		"delete":         "Supprimer",
		"save":           "Enregistrer",
		"view":           "Voir",
		"edit":           "Modifier",
		"not_found":      "Utilisateur introuvable",
		"required":       "Requis",
		"too_long":       "Trop long",
		"invalid_email":  "Email invalide",
		"email_taken":    "Un utilisateur avec cet email existe déjà",
		"username_taken": "Ce nom d'utilisateur est déjà pris",
	},
}

// DetectLanguage picks a supported language from an Accept-Language header.
// Default is English.
func DetectLanguage(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, part := range strings.Split(h, ",") {
		lang := strings.SplitN(strings.TrimSpace(part), ";", 2)[0]
		for _, supported := range []string{"en", "fr"} {
			if lang == supported || strings.HasPrefix(lang, supported+"-") {
				return supported
			}
		}
	}
	return "en"
}

// T translates a message code, falling back to English, then the code itself.
func T(lang, code string) string {
	if m, ok := translations[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := translations["en"][code]; ok {
		return s
	}
	return code
}
