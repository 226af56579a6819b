package pipeline

// User-facing framing for the non-handler terminals. Failures always say
// what was searched and invite a reformulation, never an error trace.

const emptyPrompt = "Votre question est vide. Posez une question sur le parc informatique, par exemple \"liste du materiel\" ou \"combien de commandes en attente\"."

const notFoundPrefix = "Je n'ai pas trouve de reponse precise a votre question dans l'inventaire."
