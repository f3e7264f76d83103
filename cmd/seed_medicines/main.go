package main

import (
	"log"

	"github.com/medinfo/backend/config"
	"github.com/medinfo/backend/internal/database"
	"github.com/medinfo/backend/internal/models"
	"github.com/medinfo/backend/internal/service"
)

var seedMedicines = []models.Medicine{
	{
		Name:        "aspirin",
		DisplayName: "Aspirin",
		Description: "Aspirin (acetylsalicylic acid) is commonly used to reduce pain, fever, or inflammation. It can also help prevent heart attacks and strokes by reducing blood clotting. It should be taken with food or water and never on an empty stomach.",
		Advice:      "Take with food or milk to reduce stomach irritation. Avoid alcohol while using this medicine.",
		Warning:     "Do not mix with other blood-thinning medications. Avoid use if you have ulcers or bleeding disorders.",
		PubMedLink:  "https://pubmed.ncbi.nlm.nih.gov/?term=aspirin",
		Source:      models.MedicineSourceSeed,
	},
	{
		Name:        "ibuprofen",
		DisplayName: "Ibuprofen",
		Description: "Ibuprofen is a nonsteroidal anti-inflammatory drug (NSAID) used to reduce fever and treat pain or inflammation.",
		Advice:      "Take with food or milk. Drink plenty of water.",
		Warning:     "May increase risk of heart attack or stroke. Avoid if you have stomach ulcers.",
		PubMedLink:  "https://pubmed.ncbi.nlm.nih.gov/?term=ibuprofen",
		Source:      models.MedicineSourceSeed,
	},
	{
		Name:        "paracetamol",
		DisplayName: "Paracetamol",
		Description: "Paracetamol (acetaminophen) is used to treat mild to moderate pain and to reduce fever.",
		Advice:      "Can be taken with or without food. Do not exceed recommended dose.",
		Warning:     "Overdose can cause severe liver damage. Avoid alcohol.",
		PubMedLink:  "https://pubmed.ncbi.nlm.nih.gov/?term=paracetamol",
		Source:      models.MedicineSourceSeed,
	},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	medicines := service.NewMedicineService(db, nil, 0)

	for _, medicine := range seedMedicines {
		m := medicine
		if existing, err := medicines.Get(m.Name); err != nil {
			log.Fatalf("Failed to check for %s: %v", m.Name, err)
		} else if existing != nil {
			log.Printf("Skipping %s: already present", m.Name)
			continue
		}
		if err := medicines.Insert(&m); err != nil {
			log.Fatalf("Failed to seed %s: %v", m.Name, err)
		}
		log.Printf("Seeded %s", m.Name)
	}

	log.Println("Seeding complete")
}
