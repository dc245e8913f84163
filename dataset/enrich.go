package dataset

// Enrich left-joins sales to the client master on client id and applies the
// single most important business rule in the system: the assigned
// salesperson, when present, always wins over point-of-sale attribution.
// Assignment reflects territory ownership; the point-of-sale value only
// records who happened to process the transaction.
//
// The original point-of-sale attribution is preserved in SourceSalesperson
// and is the fallback for clients absent from the master. The channel is
// recomputed from the final salesperson in every case.
//
// Enrich returns a new slice; the input is not mutated.
func Enrich(sales []Sale, clients []ClientMasterEntry, channels ChannelMap) []Sale {
	assigned := make(map[string]string, len(clients))
	for _, c := range clients {
		// Clients are already unique per id; guard first-wins anyway.
		if _, ok := assigned[c.ClientID]; !ok {
			assigned[c.ClientID] = c.Salesperson
		}
	}

	enriched := make([]Sale, len(sales))
	for i, s := range sales {
		s.SourceSalesperson = s.Salesperson
		if owner, ok := assigned[s.ClientID]; ok && owner != "" {
			s.Salesperson = owner
		}
		s.Channel = channels.Channel(s.Salesperson)
		enriched[i] = s
	}
	return enriched
}
