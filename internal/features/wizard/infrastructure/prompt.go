package infrastructure

import (
	"fmt"
	"strings"

	"crazy-bakery/backend/internal/features/wizard/domain"
)

// DefaultDecorationRules are the house rules the assistant follows when it
// rewrites a decoration idea.
const DefaultDecorationRules = `Ahora, aplica tus conocimientos de pastelería siguiendo estas reglas estrictas:
1. Toppings: eres libre de usar y sugerir cualquier topping que encaje con la descripción del cliente (chispas, frutas, perlas de azúcar, etc.).
2. Imágenes: puedes proponer decoraciones con imágenes impresas en papel de arroz.
3. Figuras 3D: NO puedes crear figuras complejas en 3D (por ejemplo personajes modelados en fondant). Si el cliente las pide, menciona la limitación y ofrece una alternativa como una impresión en papel de arroz.
4. Formato: responde con una única descripción mejorada de la decoración final, en un solo párrafo. No ofrezcas varias opciones.
5. Tono: sé amable y creativo, y describe el pastel de forma deliciosa y visualmente atractiva.

Basado en toda esta información, genera ahora la descripción de la decoración final.`

var recipeLabels = map[domain.RecipeType]string{
	domain.RecipeCake:    "Torta",
	domain.RecipeCupcake: "Cupcake",
}

func nameOr(in *domain.Ingredient) string {
	if in == nil {
		return "No especificado"
	}
	return in.Name
}

// BuildDecorationPrompt renders the system prompt of a text enhancement:
// the customer's selections, their idea, then rules.
func BuildDecorationPrompt(rules string, c domain.Configuration, idea string) string {
	if strings.TrimSpace(rules) == "" {
		rules = DefaultDecorationRules
	}
	var b strings.Builder
	b.WriteString("Actúa como un asistente experto de una pastelería creativa. Un cliente está personalizando un pedido y necesita ayuda para refinar su idea.\n\n")
	b.WriteString("El cliente ha seleccionado lo siguiente:\n")
	label := recipeLabels[c.RecipeType]
	if label == "" {
		label = "No especificado"
	}
	fmt.Fprintf(&b, "- Tipo: %s\n", label)
	if c.Size != nil {
		fmt.Fprintf(&b, "- Tamaño: %s (para %d porciones)\n", c.Size.Name, c.Size.Portions)
	}
	fmt.Fprintf(&b, "- Bizcocho: %s\n", nameOr(c.Sponge))
	fmt.Fprintf(&b, "- Relleno: %s\n", nameOr(c.Filling))
	fmt.Fprintf(&b, "- Cobertura: %s\n", nameOr(c.Coverage))
	fmt.Fprintf(&b, "\nLa idea inicial del cliente para la decoración es: %q\n\n", idea)
	b.WriteString(rules)
	return b.String()
}

// BuildImagePrompt describes the configured product for an image model.
func BuildImagePrompt(c domain.Configuration) string {
	subject := "una torta"
	if c.RecipeType == domain.RecipeCupcake {
		subject = "una caja de cupcakes"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Fotografía realista de estudio de %s", subject)
	if c.Size != nil {
		fmt.Fprintf(&b, " tamaño %s", c.Size.Name)
	}
	fmt.Fprintf(&b, ", bizcocho de %s, relleno de %s y cobertura de %s.", nameOr(c.Sponge), nameOr(c.Filling), nameOr(c.Coverage))
	if text := strings.TrimSpace(c.Customization); text != "" {
		fmt.Fprintf(&b, " Decoración: %s", text)
	}
	b.WriteString(" Sin figuras 3D modeladas en fondant.")
	return b.String()
}
