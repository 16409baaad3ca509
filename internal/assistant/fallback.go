package assistant

// fallbackReplies are the static answers served when the generation service is
// unavailable. Selected by intent, never cached.
var fallbackReplies = map[IntentTag]string{
	IntentProvider: "No momento não consegui consultar os detalhes para prestadores. " +
		"Você pode acessar a área \"Seja um Profissional\" no menu ou tentar novamente em instantes.",
	IntentComplaint: "Sinto muito pelo transtorno. Não consegui processar sua solicitação agora, " +
		"mas você pode registrar sua reclamação em \"Minha Conta > Ajuda\" ou tentar novamente em alguns minutos.",
	IntentNavHelp: "Estou com dificuldade para responder agora. Enquanto isso, a barra de busca no topo " +
		"da página ajuda a encontrar serviços e a seção de Ajuda tem guias passo a passo.",
	IntentService: "Não consegui buscar as informações do serviço neste momento. " +
		"Tente novamente em instantes ou explore as categorias de serviços na página inicial.",
	IntentNavigation: "Não consegui carregar essa informação agora. " +
		"Use o menu principal para navegar ou tente novamente em alguns instantes.",
	IntentGeneral: "Desculpe, estou com instabilidade no momento. " +
		"Pode repetir em alguns instantes? Se preferir, digite \"falar com atendente\" para suporte humano.",
}

// FallbackReply returns the canned reply for an intent.
func FallbackReply(tag IntentTag) string {
	if reply, ok := fallbackReplies[tag]; ok {
		return reply
	}
	return fallbackReplies[IntentGeneral]
}
