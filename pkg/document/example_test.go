package document_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/pedigree/pkg/document"
)

func ExampleRead() {
	p, err := document.Read(strings.NewReader(`{
		"individuals": [
			{"id": "III-1", "gender": "female", "generation": 3, "position": 1, "isPregnancy": true}
		],
		"probandId": "III-1",
		"inheritancePattern": "x_linked_recessive",
		"carrierFrequency": 0.005
	}`))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	proband, _ := p.Proband()
	fmt.Println(proband.ID, proband.Marker, p.Pattern().Title())
	// Output: III-1 pregnancy X-Linked Recessive
}
