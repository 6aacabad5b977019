// internal/domain/xml.go
package domain

// Estruturas de leitura do XML do CT-e (layout 4.00). Só os campos usados na
// auditoria são mapeados.

type InfCTe struct {
	ID  string `xml:"Id,attr"`
	Ide struct {
		Serie   string `xml:"serie"`
		NCT     string `xml:"nCT"`
		DhEmi   string `xml:"dhEmi"`
		TpServ  string `xml:"tpServ"`
		XMunIni string `xml:"xMunIni"`
		UFIni   string `xml:"UFIni"`
		XMunFim string `xml:"xMunFim"`
		UFFim   string `xml:"UFFim"`
		Toma3   struct {
			Toma string `xml:"toma"`
		} `xml:"toma3"`
		Toma4 struct {
			Toma string `xml:"toma"`
		} `xml:"toma4"`
	} `xml:"ide"`
	Compl struct {
		ObsCont []struct {
			XCampo string `xml:"xCampo,attr"`
			XTexto string `xml:"xTexto"`
		} `xml:"ObsCont"`
	} `xml:"compl"`
	Emit struct {
		CNPJ  string `xml:"CNPJ"`
		XNome string `xml:"xNome"`
	} `xml:"emit"`
	Rem struct {
		CNPJ  string `xml:"CNPJ"`
		XNome string `xml:"xNome"`
	} `xml:"rem"`
	Dest struct {
		CNPJ  string `xml:"CNPJ"`
		XNome string `xml:"xNome"`
	} `xml:"dest"`
	VPrest struct {
		VTPrest string `xml:"vTPrest"`
	} `xml:"vPrest"`
	Imp struct {
		ICMS struct {
			ICMS00 struct {
				PICMS string `xml:"pICMS"`
				VICMS string `xml:"vICMS"`
			} `xml:"ICMS00"`
			ICMS20 struct {
				PICMS string `xml:"pICMS"`
				VICMS string `xml:"vICMS"`
			} `xml:"ICMS20"`
			ICMS45 struct {
				CST string `xml:"CST"`
			} `xml:"ICMS45"`
			ICMS60 struct {
				PICMSSTRet string `xml:"pICMSSTRet"`
				VICMSSTRet string `xml:"vICMSSTRet"`
			} `xml:"ICMS60"`
			ICMS90 struct {
				PICMS string `xml:"pICMS"`
				VICMS string `xml:"vICMS"`
			} `xml:"ICMS90"`
			ICMSOutraUF struct {
				PICMSOutraUF string `xml:"pICMSOutraUF"`
				VICMSOutraUF string `xml:"vICMSOutraUF"`
			} `xml:"ICMSOutraUF"`
			ICMSSN struct {
				IndSN string `xml:"indSN"`
			} `xml:"ICMSSN"`
		} `xml:"ICMS"`
	} `xml:"imp"`
	InfCTeNorm struct {
		InfCarga struct {
			VCarga  string `xml:"vCarga"`
			ProPred string `xml:"proPred"`
			InfQ    []struct {
				CUnid  string `xml:"cUnid"`
				QCarga string `xml:"qCarga"`
			} `xml:"infQ"`
		} `xml:"infCarga"`
		InfDoc struct {
			InfNFe []struct {
				Chave string `xml:"chave"`
			} `xml:"infNFe"`
		} `xml:"infDoc"`
		DocAnt struct {
			EmiDocAnt []struct {
				CNPJ     string `xml:"CNPJ"`
				XNome    string `xml:"xNome"`
				IDDocAnt struct {
					IDDocAntEle []struct {
						ChCTe string `xml:"chCTe"`
					} `xml:"idDocAntEle"`
				} `xml:"idDocAnt"`
			} `xml:"emiDocAnt"`
		} `xml:"docAnt"`
		InfModal struct {
			Rodo struct {
				RNTRC string `xml:"RNTRC"`
				CIOT  string `xml:"CIOT"`
			} `xml:"rodo"`
		} `xml:"infModal"`
	} `xml:"infCTeNorm"`
}

type InfProtCTe struct {
	ChCTe string `xml:"chCTe"`
	CStat string `xml:"cStat"`
}

// InfNfse segue o leiaute ABRASF usado pela maioria dos municípios.
type InfNfse struct {
	Numero            string `xml:"Numero"`
	CodigoVerificacao string `xml:"CodigoVerificacao"`
	DataEmissao       string `xml:"DataEmissao"`
	Servico           struct {
		Valores struct {
			ValorServicos string `xml:"ValorServicos"`
			ValorIss      string `xml:"ValorIss"`
			Aliquota      string `xml:"Aliquota"`
		} `xml:"Valores"`
	} `xml:"Servico"`
	PrestadorServico struct {
		IdentificacaoPrestador struct {
			Cnpj    string `xml:"Cnpj"`
			CpfCnpj struct {
				Cnpj string `xml:"Cnpj"`
			} `xml:"CpfCnpj"`
		} `xml:"IdentificacaoPrestador"`
		RazaoSocial string `xml:"RazaoSocial"`
	} `xml:"PrestadorServico"`
}
