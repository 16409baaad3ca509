package assistant

import "strings"

// IntentTag is the closed set of conversation intents.
type IntentTag string

const (
	IntentProvider   IntentTag = "provider"
	IntentComplaint  IntentTag = "complaint"
	IntentNavHelp    IntentTag = "navigation_help"
	IntentService    IntentTag = "service"
	IntentNavigation IntentTag = "navigation"
	IntentGeneral    IntentTag = "general"
)

// intentRule binds one tag to its trigger substrings. Rules are evaluated in
// slice order; the first rule with a matching keyword wins, so precedence
// lives in the ordering and is testable on its own.
type intentRule struct {
	tag      IntentTag
	keywords []string
}

// defaultIntentRules: provider-specific > complaint > navigation phrases >
// service keywords > generic navigation words. Matching is case-insensitive
// substring containment.
var defaultIntentRules = []intentRule{
	{
		tag: IntentProvider,
		keywords: []string{
			"prestador", "profissional", "virar parceiro", "oferecer servi",
			"cadastrar servi", "meu perfil de trabalho", "receber pagamento",
			"quero trabalhar",
		},
	},
	{
		tag: IntentComplaint,
		keywords: []string{
			"reclama", "problema", "não funciona", "nao funciona", "erro",
			"defeito", "insatisfeit", "cancelar", "reembolso", "devolu",
		},
	},
	{
		tag: IntentNavHelp,
		keywords: []string{
			"como faço", "como faco", "como posso", "onde encontro",
			"onde fica", "não consigo achar", "nao consigo achar",
			"como contratar", "como agendar",
		},
	},
	{
		tag: IntentService,
		keywords: []string{
			"serviço", "servico", "orçamento", "orcamento", "diarista",
			"eletricista", "encanador", "pintor", "montador", "faxina",
			"reforma", "frete", "preço", "preco", "valor",
		},
	},
	{
		tag: IntentNavigation,
		keywords: []string{
			"página", "pagina", "menu", "botão", "botao", "aba", "tela",
			"cadastro", "login", "conta",
		},
	},
}

// IntentClassifier matches text against an ordered rule set.
type IntentClassifier struct {
	rules []intentRule
}

func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{rules: defaultIntentRules}
}

// Classify is deterministic: identical input always yields the identical tag.
func (c *IntentClassifier) Classify(text string) IntentTag {
	lowered := strings.ToLower(text)
	for _, rule := range c.rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.tag
			}
		}
	}
	return IntentGeneral
}
