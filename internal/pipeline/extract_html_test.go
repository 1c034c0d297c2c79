package pipeline

import "testing"

func TestDecodeHTMLGrid(t *testing.T) {
	html := `<html><body>
<p>Bonjour,</p>
<table>
<tr><th>Référence</th><th>Désignation</th><th>Prix TTC</th></tr>
<tr><td>TR3200</td><td>Toit relevable</td><td>3&nbsp;590,00&nbsp;€</td></tr>
<tr><td>AD1001</td><td>Kit adaptation</td><td>299,00 €</td></tr>
</table>
</body></html>`

	grid, err := DecodeHTMLGrid(html)
	if err != nil {
		t.Fatal(err)
	}
	if len(grid) != 3 {
		t.Fatalf("len=%d", len(grid))
	}
	if grid[0][0] != "Référence" {
		t.Fatalf("header=%q", grid[0][0])
	}

	products := ExtractFromGrid(grid)
	if len(products) != 2 {
		t.Fatalf("products=%d", len(products))
	}
	if products[0].SellPriceIncTax == nil || *products[0].SellPriceIncTax != 3590 {
		t.Fatalf("sell: %+v", products[0].SellPriceIncTax)
	}
}

func TestDecodeHTMLGridNoTable(t *testing.T) {
	grid, err := DecodeHTMLGrid("<p>pas de tableau ici</p>")
	if err != nil {
		t.Fatal(err)
	}
	if len(grid) != 0 {
		t.Fatalf("len=%d", len(grid))
	}
}
