package receipt_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/receipt"
)

func cp866(t *testing.T, s string) []byte {
	t.Helper()
	out, err := charmap.CodePage866.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

func sampleReceipt() receipt.Receipt {
	return receipt.Receipt{
		OrderID:          17,
		CustomerName:     "Анна",
		CustomerUsername: "@anna",
		Phone:            "+79991234567",
		Address:          "ул. Ленина, 1",
		Items: []receipt.Item{
			{Name: "Эклер шоколадный", Price: 12000, Quantity: 2, Total: 24000},
			{Name: "Макарон ассорти (5 шт)", Price: 45000, Quantity: 1, Total: 45000},
		},
		TotalAmount: 69000,
		Date:        "2026-03-01 12:30:00",
		ShopName:    "Кондитерская Сладости",
		ShopAddress: "ул. Кондитерская, 15",
		ShopPhone:   "+7 (999) 123-45-67",
	}
}

func TestFormat_ExactBytes(t *testing.T) {
	r := receipt.Receipt{
		OrderID:      1,
		CustomerName: "Ян",
		Items:        []receipt.Item{{Name: "Торт", Price: 35000, Quantity: 1, Total: 35000}},
		TotalAmount:  35000,
		Date:         "2026-01-02 03:04:05",
		ShopName:     "Shop",
		ShopAddress:  "Addr",
		ShopPhone:    "1",
	}

	sep := "================================\n"
	var want bytes.Buffer
	want.Write([]byte{0x1B, 0x40, 0x1B, 0x21, 0x08})
	want.Write(cp866(t, "Shop\n"))
	want.Write([]byte{0x1B, 0x21, 0x00})
	want.Write(cp866(t, "Addr\nТел: 1\n"))
	want.Write([]byte{0x1D, 0x21, 0x00})
	want.Write(cp866(t, sep))
	want.Write([]byte{0x1B, 0x21, 0x08})
	want.Write(cp866(t, "ЗАКАЗ #1\n"))
	want.Write([]byte{0x1B, 0x21, 0x00})
	want.Write(cp866(t, "Дата: 2026-01-02 03:04:05\nКассир: Администратор\n"+sep))
	want.Write([]byte{0x1B, 0x21, 0x08})
	want.Write(cp866(t, "КЛИЕНТ:\n"))
	want.Write([]byte{0x1B, 0x21, 0x00})
	want.Write(cp866(t, "Имя: Ян\nТелефон: Не указан\nАдрес: Самовывоз\n"+sep))
	want.Write([]byte{0x1B, 0x21, 0x08})
	want.Write(cp866(t, "ТОВАРЫ:\n"))
	want.Write([]byte{0x1B, 0x21, 0x00})
	want.Write(cp866(t, "Торт\n1 x 350.00 = 350.00\n--------------------\n"))
	want.Write([]byte{0x1B, 0x21, 0x08})
	want.Write(cp866(t, "ИТОГО: 350.00"))
	want.WriteString("?\n")
	want.Write([]byte{0x1B, 0x21, 0x00})
	want.Write(cp866(t, sep+"Спасибо за покупку!\nЖдем вас снова!\n"))
	want.Write([]byte{'\n', '\n', '\n', '\n', 0x1D, 0x56, 0x00})

	require.Equal(t, want.Bytes(), receipt.Format(r))
}

func TestFormat_CustomerBlock(t *testing.T) {
	out := receipt.Format(sampleReceipt())
	require.True(t, bytes.Contains(out, cp866(t, "Telegram: @anna\n")))
	require.True(t, bytes.Contains(out, cp866(t, "Телефон: +79991234567\n")))

	noHandle := sampleReceipt()
	noHandle.CustomerUsername = receipt.NoValue
	require.False(t, bytes.Contains(receipt.Format(noHandle), cp866(t, "Telegram:")))

	noHandle.CustomerUsername = ""
	require.False(t, bytes.Contains(receipt.Format(noHandle), cp866(t, "Telegram:")))
}

func TestFormat_ItemLines(t *testing.T) {
	out := receipt.Format(sampleReceipt())

	require.True(t, bytes.Contains(out, cp866(t, "Эклер шоколадный\n2 x 120.00 = 240.00\n")))
	// 22 символа: обрезается до 17 + "..."
	require.True(t, bytes.Contains(out, cp866(t, "Макарон ассорти (...\n1 x 450.00 = 450.00\n")))
	require.True(t, bytes.Contains(out, cp866(t, "ИТОГО: 690.00")))
}

func TestFormat_UnsupportedRunesReplaced(t *testing.T) {
	r := sampleReceipt()
	r.CustomerName = "Анна 🎂"
	out := receipt.Format(r)
	require.True(t, bytes.Contains(out, append(cp866(t, "Имя: Анна "), '?', '\n')))
}

func TestFormat_Deterministic(t *testing.T) {
	require.Equal(t, receipt.Format(sampleReceipt()), receipt.Format(sampleReceipt()))
}

func TestFromOrder(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	order := domain.Order{
		ID:           5,
		CustomerName: "Олег",
		Username:     "oleg",
		Items: []domain.LineItem{
			{ProductID: "item_3", Name: `Пирожное "Картошка"`, UnitPrice: 8000, Quantity: 3, Total: 24000},
		},
		Total:     24000,
		CreatedAt: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
	}
	shop := receipt.Shop{Name: "Кондитерская Сладости", Address: "ул. Кондитерская, 15", Phone: "+7"}

	r := receipt.FromOrder(order, shop, loc)
	require.Equal(t, "@oleg", r.CustomerUsername)
	require.Equal(t, "2026-03-02 01:00:00", r.Date)
	require.Equal(t, shop.Name, r.ShopName)
	require.Len(t, r.Items, 1)
	require.Equal(t, domain.Money(8000), r.Items[0].Price)

	order.Username = ""
	require.Equal(t, receipt.NoValue, receipt.FromOrder(order, shop, loc).CustomerUsername)
}

func TestSample(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	r := receipt.Sample(receipt.Shop{Name: "S"}, now)
	require.Equal(t, int64(999), r.OrderID)
	require.Equal(t, domain.Money(250000), r.TotalAmount)
	require.Equal(t, "2026-05-01 10:00:00", r.Date)
	require.True(t, bytes.Contains(receipt.Format(r), cp866(t, "2 x 1000.00 = 2000.00")))
}
