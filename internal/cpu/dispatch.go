/*
 * vm32 - Opcode table and unknown-instruction handling.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package cpu

// Opcode byte values. The instruction set places the opcode in the
// low byte of the 32-bit instruction word and a signed 24-bit
// immediate in the remaining bits; the numbering here is purely an
// index into the dispatch table; nothing external depends on it.
const (
	opHALT uint8 = iota
	opIDLE

	opMCPY
	opMCMP
	opMCHR
	opMSET

	opPOW
	opATN2
	opFABS
	opATAN
	opLOG
	opLOGT
	opEXP
	opFLOR
	opCEIL
	opHYPO
	opSIN
	opCOS
	opTAN
	opASIN
	opACOS
	opSINH
	opCOSH
	opTANH
	opSQRT
	opFMOD

	opENT
	opLEV
	opJMP
	opJMPI
	opJSR
	opJSRA

	opPSHA
	opPSHB
	opPSHC
	opPSHF
	opPSHG
	opPSHI
	opPOPA
	opPOPB
	opPOPC
	opPOPF
	opPOPG

	opLEA
	opLEAG

	opLL
	opLLS
	opLLH
	opLLC
	opLLB
	opLLD
	opLLF

	opLG
	opLGS
	opLGH
	opLGC
	opLGB
	opLGD
	opLGF

	opLX
	opLXS
	opLXH
	opLXC
	opLXB
	opLXD
	opLXF

	opLI
	opLHI
	opLIF

	opLBL
	opLBLS
	opLBLH
	opLBLC
	opLBLB
	opLBLD
	opLBLF

	opLBG
	opLBGS
	opLBGH
	opLBGC
	opLBGB
	opLBGD
	opLBGF

	opLBX
	opLBXS
	opLBXH
	opLBXC
	opLBXB
	opLBXD
	opLBXF

	opLBI
	opLBHI
	opLBIF

	opLCL
	opLBA
	opLCA
	opLBAD

	opSL
	opSLH
	opSLB
	opSLD
	opSLF

	opSG
	opSGH
	opSGB
	opSGD
	opSGF

	opSX
	opSXH
	opSXB
	opSXD
	opSXF

	opADDF
	opSUBF
	opMULF
	opDIVF

	opADD
	opADDI
	opADDL
	opSUB
	opSUBI
	opSUBL
	opMUL
	opMULI
	opMULL
	opDIV
	opDIVI
	opDIVL
	opDVU
	opDVUI
	opDVUL
	opMOD
	opMODI
	opMODL
	opMDU
	opMDUI
	opMDUL
	opAND
	opANDI
	opANDL
	opOR
	opORI
	opORL
	opXOR
	opXORI
	opXORL
	opSHL
	opSHLI
	opSHLL
	opSHR
	opSHRI
	opSHRL
	opSRU
	opSRUI
	opSRUL

	opEQ
	opEQF
	opNE
	opNEF
	opLT
	opLTU
	opLTF
	opGE
	opGEU
	opGEF

	opBZ
	opBZF
	opBNZ
	opBNZF
	opBE
	opBEF
	opBNE
	opBNEF
	opBLT
	opBLTU
	opBLTF
	opBGE
	opBGEU
	opBGEF

	opCID
	opCUD
	opCDI
	opCDU

	opBIN
	opBOUT
	opSSP
	opNOP
	opCYC
	opMSIZ

	opCLI
	opSTI
	opRTI
	opIVEC
	opPDIR
	opSPAG
	opTIME
	opLVAD
	opTRAP
	opLUSP
	opSUSP

	opcodeCount
)

func (c *CPU) buildTable() {
	for i := range c.table {
		c.table[i] = opUnknown
	}

	c.table[opHALT] = opHalt
	c.table[opIDLE] = opIdle

	c.table[opMCPY] = opMcpy
	c.table[opMCMP] = opMcmp
	c.table[opMCHR] = opMchr
	c.table[opMSET] = opMset

	c.table[opPOW] = opPow
	c.table[opATN2] = opAtn2
	c.table[opFABS] = opFabs
	c.table[opATAN] = opAtan
	c.table[opLOG] = opLog
	c.table[opLOGT] = opLogt
	c.table[opEXP] = opExp
	c.table[opFLOR] = opFlor
	c.table[opCEIL] = opCeil
	c.table[opHYPO] = opHypo
	c.table[opSIN] = opSin
	c.table[opCOS] = opCos
	c.table[opTAN] = opTan
	c.table[opASIN] = opAsin
	c.table[opACOS] = opAcos
	c.table[opSINH] = opSinh
	c.table[opCOSH] = opCosh
	c.table[opTANH] = opTanh
	c.table[opSQRT] = opSqrt
	c.table[opFMOD] = opFmod

	c.table[opENT] = opEnt
	c.table[opLEV] = opLev
	c.table[opJMP] = opJmp
	c.table[opJMPI] = opJmpi
	c.table[opJSR] = opJsr
	c.table[opJSRA] = opJsra

	c.table[opPSHA] = opPsha
	c.table[opPSHB] = opPshb
	c.table[opPSHC] = opPshc
	c.table[opPSHF] = opPshf
	c.table[opPSHG] = opPshg
	c.table[opPSHI] = opPshi
	c.table[opPOPA] = opPopa
	c.table[opPOPB] = opPopb
	c.table[opPOPC] = opPopc
	c.table[opPOPF] = opPopf
	c.table[opPOPG] = opPopg

	c.table[opLEA] = opLea
	c.table[opLEAG] = opLeag

	c.table[opLL] = opLl
	c.table[opLLS] = opLls
	c.table[opLLH] = opLlh
	c.table[opLLC] = opLlc
	c.table[opLLB] = opLlb
	c.table[opLLD] = opLld
	c.table[opLLF] = opLlf

	c.table[opLG] = opLg
	c.table[opLGS] = opLgs
	c.table[opLGH] = opLgh
	c.table[opLGC] = opLgc
	c.table[opLGB] = opLgb
	c.table[opLGD] = opLgd
	c.table[opLGF] = opLgf

	c.table[opLX] = opLx
	c.table[opLXS] = opLxs
	c.table[opLXH] = opLxh
	c.table[opLXC] = opLxc
	c.table[opLXB] = opLxb
	c.table[opLXD] = opLxd
	c.table[opLXF] = opLxf

	c.table[opLI] = opLi
	c.table[opLHI] = opLhi
	c.table[opLIF] = opLif

	c.table[opLBL] = opLbl
	c.table[opLBLS] = opLbls
	c.table[opLBLH] = opLblh
	c.table[opLBLC] = opLblc
	c.table[opLBLB] = opLblb
	c.table[opLBLD] = opLbld
	c.table[opLBLF] = opLblf

	c.table[opLBG] = opLbg
	c.table[opLBGS] = opLbgs
	c.table[opLBGH] = opLbgh
	c.table[opLBGC] = opLbgc
	c.table[opLBGB] = opLbgb
	c.table[opLBGD] = opLbgd
	c.table[opLBGF] = opLbgf

	c.table[opLBX] = opLbx
	c.table[opLBXS] = opLbxs
	c.table[opLBXH] = opLbxh
	c.table[opLBXC] = opLbxc
	c.table[opLBXB] = opLbxb
	c.table[opLBXD] = opLbxd
	c.table[opLBXF] = opLbxf

	c.table[opLBI] = opLbi
	c.table[opLBHI] = opLbhi
	c.table[opLBIF] = opLbif

	c.table[opLCL] = opLcl
	c.table[opLBA] = opLba
	c.table[opLCA] = opLca
	c.table[opLBAD] = opLbad

	c.table[opSL] = opSl
	c.table[opSLH] = opSlh
	c.table[opSLB] = opSlb
	c.table[opSLD] = opSld
	c.table[opSLF] = opSlf

	c.table[opSG] = opSg
	c.table[opSGH] = opSgh
	c.table[opSGB] = opSgb
	c.table[opSGD] = opSgd
	c.table[opSGF] = opSgf

	c.table[opSX] = opSx
	c.table[opSXH] = opSxh
	c.table[opSXB] = opSxb
	c.table[opSXD] = opSxd
	c.table[opSXF] = opSxf

	c.table[opADDF] = opAddf
	c.table[opSUBF] = opSubf
	c.table[opMULF] = opMulf
	c.table[opDIVF] = opDivf

	c.table[opADD] = opAdd
	c.table[opADDI] = opAddi
	c.table[opADDL] = opAddl
	c.table[opSUB] = opSub
	c.table[opSUBI] = opSubi
	c.table[opSUBL] = opSubl
	c.table[opMUL] = opMul
	c.table[opMULI] = opMuli
	c.table[opMULL] = opMull
	c.table[opDIV] = opDiv
	c.table[opDIVI] = opDivi
	c.table[opDIVL] = opDivl
	c.table[opDVU] = opDvu
	c.table[opDVUI] = opDvui
	c.table[opDVUL] = opDvul
	c.table[opMOD] = opMod
	c.table[opMODI] = opModi
	c.table[opMODL] = opModl
	c.table[opMDU] = opMdu
	c.table[opMDUI] = opMdui
	c.table[opMDUL] = opMdul
	c.table[opAND] = opAnd
	c.table[opANDI] = opAndi
	c.table[opANDL] = opAndl
	c.table[opOR] = opOr
	c.table[opORI] = opOri
	c.table[opORL] = opOrl
	c.table[opXOR] = opXor
	c.table[opXORI] = opXori
	c.table[opXORL] = opXorl
	c.table[opSHL] = opShl
	c.table[opSHLI] = opShli
	c.table[opSHLL] = opShll
	c.table[opSHR] = opShr
	c.table[opSHRI] = opShri
	c.table[opSHRL] = opShrl
	c.table[opSRU] = opSru
	c.table[opSRUI] = opSrui
	c.table[opSRUL] = opSrul

	c.table[opEQ] = opEq
	c.table[opEQF] = opEqf
	c.table[opNE] = opNe
	c.table[opNEF] = opNef
	c.table[opLT] = opLt
	c.table[opLTU] = opLtu
	c.table[opLTF] = opLtf
	c.table[opGE] = opGe
	c.table[opGEU] = opGeu
	c.table[opGEF] = opGef

	c.table[opBZ] = opBz
	c.table[opBZF] = opBzf
	c.table[opBNZ] = opBnz
	c.table[opBNZF] = opBnzf
	c.table[opBE] = opBe
	c.table[opBEF] = opBef
	c.table[opBNE] = opBne
	c.table[opBNEF] = opBnef
	c.table[opBLT] = opBlt
	c.table[opBLTU] = opBltu
	c.table[opBLTF] = opBltf
	c.table[opBGE] = opBge
	c.table[opBGEU] = opBgeu
	c.table[opBGEF] = opBgef

	c.table[opCID] = opCid
	c.table[opCUD] = opCud
	c.table[opCDI] = opCdi
	c.table[opCDU] = opCdu

	c.table[opBIN] = opBin
	c.table[opBOUT] = opBout
	c.table[opSSP] = opSsp
	c.table[opNOP] = opNop
	c.table[opCYC] = opCyc
	c.table[opMSIZ] = opMsiz

	c.table[opCLI] = opCli
	c.table[opSTI] = opSti
	c.table[opRTI] = opRti
	c.table[opIVEC] = opIvec
	c.table[opPDIR] = opPdir
	c.table[opSPAG] = opSpag
	c.table[opTIME] = opTime
	c.table[opLVAD] = opLvad
	c.table[opTRAP] = opTrapOpcode
	c.table[opLUSP] = opLusp
	c.table[opSUSP] = opSusp
}

// opUnknown handles every opcode byte with no assigned handler.
func opUnknown(c *CPU, imm int32, raw uint32) continuation {
	return c.raiseSync(FInst)
}

// raiseSync latches a synchronous fault detected by an opcode handler
// and signals the dispatch loop to deliver it. Privileged-instruction
// and illegal-instruction faults always originate in the ring the CPU
// is currently in, so UserOrigin is attached here rather than at each
// call site.
func (c *CPU) raiseSync(code uint32) continuation {
	c.Trap = code
	if c.User {
		c.Trap |= UserOrigin
	}
	return contDeliverTrap
}
