package format

import (
	"fmt"

	"github.com/Yates-Labs/bayan/internal/lang"
)

type gdpFormatter struct{}

func (gdpFormatter) Family() string { return "gastat_gdp" }

func (gdpFormatter) Format(row Row, l lang.Language) string {
	f := fields{row: row, lang: l}
	period := f.first("Quarter", "Year")
	activity := f.get("Economic Activity Section")
	gdp := f.get("GDP")
	if l == lang.Arabic {
		return fmt.Sprintf("الناتج المحلي الإجمالي للنشاط الاقتصادي '%s' في %s كان %s.", activity, period, gdp)
	}
	return fmt.Sprintf("The Gross Domestic Product (GDP) for the economic activity '%s' in %s was %s.", activity, period, gdp)
}

type inflationFormatter struct{}

func (inflationFormatter) Family() string { return "gastat_inflation" }

func (inflationFormatter) Format(row Row, l lang.Language) string {
	f := fields{row: row, lang: l}
	period := f.first("Month", "Year")
	city := f.get("City")
	cpi := f.get("Consumer Price Index")
	inflation := f.get("Inflation")
	if l == lang.Arabic {
		return fmt.Sprintf("في مدينة '%s' لفترة %s, كان الرقم القياسي لأسعار المستهلك %s بمعدل تضخم %s%%.", city, period, cpi, inflation)
	}
	return fmt.Sprintf("In %s for the period %s, the Consumer Price Index was %s with an inflation rate of %s%%.", city, period, cpi, inflation)
}

type wpiFormatter struct{}

func (wpiFormatter) Family() string { return "gastat_wpi" }

func (wpiFormatter) Format(row Row, l lang.Language) string {
	f := fields{row: row, lang: l}
	city := f.get("City")
	year := f.get("Year")
	wpi := f.get("Wholesale Price Index")
	growth := f.get("Wholesale Price Index Growth")
	if l == lang.Arabic {
		return fmt.Sprintf("في مدينة '%s' لسنة %s, كان مؤشر أسعار الجملة %s بنسبة نمو %s%%.", city, year, wpi, growth)
	}
	return fmt.Sprintf("In %s for the year %s, the Wholesale Price Index was %s with a growth of %s%%.", city, year, wpi, growth)
}

type ipiFormatter struct{}

func (ipiFormatter) Family() string { return "gastat_ipi" }

func (ipiFormatter) Format(row Row, l lang.Language) string {
	f := fields{row: row, lang: l}
	sector := f.get("Economic Sectors")
	month := f.get("Month")
	ipi := f.get("Industrial Production Index")
	change := f.get("Percentage change")
	if l == lang.Arabic {
		return fmt.Sprintf("بالنسبة للقطاعات الاقتصادية '%s' لشهر %s, كان مؤشر الإنتاج الصناعي %s بنسبة تغير %s%%.", sector, month, ipi, change)
	}
	return fmt.Sprintf("For the economic sector '%s' for the month %s, the Industrial Production Index was %s with a percentage change of %s%%.", sector, month, ipi, change)
}

type pmiFormatter struct{}

func (pmiFormatter) Family() string { return "pmi" }

func (pmiFormatter) Format(row Row, l lang.Language) string {
	f := fields{row: row, lang: l}
	month := f.get("Month")
	pmi := f.get("Purchasing Manager Index")
	if l == lang.Arabic {
		return fmt.Sprintf("مؤشر مديري المشتريات (PMI) لشهر %s كان %s.", month, pmi)
	}
	return fmt.Sprintf("The Purchasing Manager Index (PMI) for %s was %s.", month, pmi)
}

type govFinanceFormatter struct{}

func (govFinanceFormatter) Family() string { return "mof_government" }

func (govFinanceFormatter) Format(row Row, l lang.Language) string {
	f := fields{row: row, lang: l}
	quarter := f.get("Quarter")
	kind := f.get("Type")
	amount := f.get("SAR Billions")
	if l == lang.Arabic {
		return fmt.Sprintf("البيانات المالية الحكومية للربع '%s' تظهر أن '%s' بلغت %s مليار ريال سعودي.", quarter, kind, amount)
	}
	return fmt.Sprintf("Government finance data for quarter '%s' shows that '%s' was %s billion SAR.", quarter, kind, amount)
}

type moneySupplyFormatter struct{}

func (moneySupplyFormatter) Family() string { return "sama_money_supply" }

func (moneySupplyFormatter) Format(row Row, l lang.Language) string {
	f := fields{row: row, lang: l}
	period := f.first("Month", "Year")
	amount := f.get("Million SAR")
	if l == lang.Arabic {
		return fmt.Sprintf("عرض النقود للفترة %s بلغ %s مليون ريال سعودي.", period, amount)
	}
	return fmt.Sprintf("Money supply for the period %s was %s million SAR.", period, amount)
}
