package catalog

// DefaultTables returns fresh copies of the built-in tables.
func DefaultTables() Tables {
	return Tables{
		Furniture: map[string]string{
			"Bed":         "Cama",
			"Wardrobe":    "Guarda-roupa",
			"NigthStand":  "Criado-mudo",
			"Decorations": "Decoração",
			"Rug":         "Tapete",
			"Window":      "Persiana",
			"TV":          "Televisão",
			"Eletronics":  "Eletrônicos",
			"Chair":       "Poltrona",
			"Desk":        "Escrivaninha",
			"Bookshelf":   "Estante de Livros",
			"Shelving":    "Estante",

			"CoffeeTable":    "Mesa de Centro",
			"Shelf":          "Estante",
			"HomeAppliance":  "Eletrodoméstico",
			"Sofa":           "Sofá",
			"Lights":         "Iluminação",
			"Cabinet":        "Armário",
			"AirConditioner": "Ar Condicionado",
			"Decoration":     "Decoração",

			"Freezer":         "Freezer",
			"HomeAppliances":  "Eletrodomésticos",
			"KitchenUtensils": "Utensílios de Cozinha",
			"Table":           "Mesa de Jantar",
			"Sink":            "Pia",
			"Cooktop":         "Cooktop",
			"RangeHood":       "Coifa",
			"KitchenCabinets": "Armários de Cozinha",

			"Mirror": "Espelho",
			"Towels": "Toalhas",
			"Shower": "Chuveiro",

			"Else": "Outros",
		},
		Rooms: map[string][]string{
			"Quarto Casal": {"Bed", "Wardrobe", "NigthStand", "Decorations", "Rug", "Window", "TV", "Eletronics", "Chair", "Desk", "Shelving", "Bookshelf"},
			"Sala":         {"CoffeeTable", "Eletronics", "Shelf", "HomeAppliance", "Window", "Sofa", "Lights", "Cabinet", "Decoration", "AirConditioner", "Rug", "Else"},
			"Cozinha":      {"Freezer", "HomeAppliances", "KitchenUtensils", "Table", "Sink", "Cooktop", "RangeHood", "KitchenCabinets", "Else"},
			"Banheiro":     {"Mirror", "Towels", "Shower", "Cabinet", "Rug", "Else"},
		},
		Descriptions: map[string]string{
			"cama":           "Para nosso descanso e conforto",
			"guarda-roupa":   "Para organizar nossas roupas",
			"criado-mudo":    "Para nossos momentos de leitura",
			"decoração":      "Toques especiais para nosso cantinho",
			"tapete":         "Conforto para nossos pés",
			"persiana":       "Privacidade e controle de luz",
			"televisão":      "Para nosso entretenimento",
			"eletrônicos":    "Tecnologia para nosso conforto",
			"poltrona":       "Para relaxar e ler",
			"escrivaninha":   "Espaço para trabalho",
			"estante-livros": "Para organizar nossos livros",
			"estante":        "Para organização e armazenamento",
		},
		DefaultDescription: defaultDescription,
	}
}
