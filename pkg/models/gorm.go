package models

func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&Case{},
		&Document{}, // References casos.iuc through attached_iuc
		&Petition{},
		&CodeSequence{},
	}
}
